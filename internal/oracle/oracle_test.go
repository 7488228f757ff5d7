package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubOracleWordCount(t *testing.T) {
	o := StubOracle{}
	score, err := o.Score(context.Background(), "I am here")
	require.NoError(t, err)
	assert.Equal(t, -3.0, score)
}

func TestStubOracleEmptySentence(t *testing.T) {
	o := StubOracle{}
	score, err := o.Score(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestStubOraclePerCharacter(t *testing.T) {
	o := StubOracle{PerCharacter: true}
	score, err := o.Score(context.Background(), "I am")
	require.NoError(t, err)
	assert.Equal(t, -4.0, score)
}

func TestConstantOracleIsConstant(t *testing.T) {
	o := ConstantOracle(-2.5)
	for _, s := range []string{"a", "b c", ""} {
		score, err := o.Score(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, -2.5, score)
	}
}

func TestClampRejectsPositiveScore(t *testing.T) {
	_, err := Clamp(1.0, nil)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestHTTPOracleRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I am", req.Sentence)
		json.NewEncoder(w).Encode(scoreResponse{Score: -3.2})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	score, err := o.Score(context.Background(), "I am")
	require.NoError(t, err)
	assert.Equal(t, -3.2, score)
}

func TestHTTPOracleRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL)
	_, err := o.Score(context.Background(), "x")
	assert.Error(t, err)
}
