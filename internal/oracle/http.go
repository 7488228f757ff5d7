package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPOracle scores sentences by delegating to an external process over
// plain JSON/HTTP. It is the collaborator slot the package-level doc
// describes as "a language model is one implementation" - the concrete
// neural scorer lives outside this module entirely and only has to speak
// this tiny wire format. The core never imports a model library directly.
type HTTPOracle struct {
	Addr   string
	Client *http.Client
}

type scoreRequest struct {
	Sentence string `json:"sentence"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewHTTPOracle returns an HTTPOracle with a sane default client timeout.
// Inference calls are treated as blocking per the concurrency model, so the
// timeout here is generous rather than tight; the three-consecutive-failure
// rule in the search loop is what actually bounds total wasted time.
func NewHTTPOracle(addr string) *HTTPOracle {
	return &HTTPOracle{
		Addr:   addr,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (h *HTTPOracle) Score(ctx context.Context, sentence string) (float64, error) {
	body, err := json.Marshal(scoreRequest{Sentence: sentence})
	if err != nil {
		return 0, fmt.Errorf("oracle: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Addr, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("oracle: scorer returned status %d", resp.StatusCode)
	}
	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("oracle: decode response: %w", err)
	}
	return Clamp(out.Score, nil)
}
