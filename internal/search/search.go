// Package search implements the selection/expansion/backpropagation loop
// that grows the persisted tree one roll-out at a time.
package search

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/domino14/anagramist/internal/bank"
	"github.com/domino14/anagramist/internal/oracle"
	"github.com/domino14/anagramist/internal/puzzle"
	"github.com/domino14/anagramist/internal/store"
	"github.com/domino14/anagramist/internal/validate"
	"github.com/domino14/anagramist/internal/vocab"
)

// ExplorationScore is the score, cumulative score and mean_descendant score
// written for a seeded root node before the oracle has scored it.
const ExplorationScore = -40.0

// Loop owns one puzzle run: the bank, vocabulary, profile, oracle, store
// and PRNG needed to grow the tree.
type Loop struct {
	Bank       bank.Bank
	Vocabulary *vocab.Vocabulary
	Profile    *puzzle.Profile
	Oracle     oracle.Oracle
	Store      *store.Store
	Rand       *rand.Rand
	Log        zerolog.Logger

	// MaxIterations bounds one Run call; zero means unbounded (the caller's
	// ctx is then the only way to stop).
	MaxIterations int
}

// Result reports how a Run call ended.
type Result struct {
	Iterations int
	Solution   string // non-empty iff a winning sentence was found
	Found      bool
}

// maxConsecutiveOracleFailures bounds how many roll-outs in a row may fail
// on the oracle call before Run gives up entirely, per §7's three-strikes
// rule: a single flaky call aborts only its own roll-out and tries again
// with a fresh selection, but three in a row means the oracle itself is
// down and further retries would just spin.
const maxConsecutiveOracleFailures = 3

// Run drives iterations of selection, expansion and backpropagation until
// ctx is cancelled or MaxIterations is reached. The root sentence is seeded
// into the store on first use.
func (l *Loop) Run(ctx context.Context, root string) (Result, error) {
	if err := l.ensureRoot(ctx, root); err != nil {
		return Result{}, err
	}

	var res Result
	var oracleFailures int
	for {
		if l.MaxIterations > 0 && res.Iterations >= l.MaxIterations {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		candidate, err := l.selectNode(ctx, root)
		if err != nil {
			return res, err
		}

		leaf := l.expand(candidate)

		path, winner, err := l.backprop(ctx, leaf)
		if err != nil {
			oracleFailures++
			l.Log.Warn().Err(err).Int("consecutive_failures", oracleFailures).Msg("roll-out aborted, retrying with a fresh selection")
			if oracleFailures >= maxConsecutiveOracleFailures {
				return res, fmt.Errorf("search: %d consecutive oracle failures: %w", oracleFailures, err)
			}
			continue
		}
		oracleFailures = 0

		if err := l.Store.Rollout(ctx, path); err != nil {
			return res, err
		}
		res.Iterations++
		if winner != "" {
			res.Found = true
			res.Solution = winner
			return res, nil
		}
	}
}

func (l *Loop) ensureRoot(ctx context.Context, root string) error {
	_, ok, err := l.Store.Get(ctx, root)
	if err != nil {
		return fmt.Errorf("search: ensure root: %w", err)
	}
	if ok {
		return nil
	}
	if root != "" {
		if res := validate.Soft(root, l.Bank, l.Vocabulary, l.Profile); res.Outcome == validate.Invalid {
			return fmt.Errorf("search: root %q fails soft validation: %s", root, res.Reason)
		}
	}
	parent := ""
	if idx := lastSpace(root); idx >= 0 {
		parent = root[:idx]
	}
	return l.Store.Put(ctx, store.NodeRecord{
		Sentence:       root,
		Parent:         parent,
		Score:          ExplorationScore,
		Cumulative:     ExplorationScore,
		MeanDescendant: ExplorationScore,
		Status:         store.StatusOpen,
	})
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}

// selectNode draws a frontier node from the subtree rooted at prefix,
// weighted by a softmax over mean_descendant score. When every candidate has
// the same score (e.g. all still at ExplorationScore) the draw is uniform,
// so the very first few iterations of a run aren't deadlocked waiting for
// real scores; when the pool is empty, prefix itself is returned.
//
// The pool is every open node under prefix, not filtered down to nodes that
// still have an unexplored child per §4.6 step 1 - re-selecting a node whose
// children are already exhausted just re-expands a sibling path and costs an
// extra roll-out, it doesn't stall the search, and the Python reference
// samples broadly in the same way.
func (l *Loop) selectNode(ctx context.Context, prefix string) (string, error) {
	pool, err := l.Store.SampleWeighted(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("search: select: %w", err)
	}
	if len(pool) == 0 {
		return prefix, nil
	}

	weights := softmax(pool)
	r := l.Rand.Float64()
	var cum float64
	for i, w := range weights {
		cum += w
		if r <= cum {
			return pool[i].Sentence, nil
		}
	}
	return pool[len(pool)-1].Sentence, nil
}

// softmax converts mean-descendant scores into a probability distribution.
// Ties and degenerate inputs (all-equal scores, a single candidate) resolve
// to a uniform distribution rather than dividing by zero.
func softmax(pool []store.NodeRecord) []float64 {
	max := pool[0].MeanDescendant
	for _, rec := range pool[1:] {
		if rec.MeanDescendant > max {
			max = rec.MeanDescendant
		}
	}
	weights := make([]float64, len(pool))
	var sum float64
	for i, rec := range pool {
		w := math.Exp(rec.MeanDescendant - max)
		weights[i] = w
		sum += w
	}
	if sum == 0 || math.IsNaN(sum) {
		uniform := 1.0 / float64(len(pool))
		for i := range weights {
			weights[i] = uniform
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// expand takes a uniform random walk from candidate, appending playable
// vocabulary tokens until soft validation fails or no token remains
// placeable. It never consults the oracle - scoring happens only at
// backprop time, once per node on the finished path.
func (l *Loop) expand(candidate string) string {
	for {
		res := validate.Soft(candidate, l.Bank, l.Vocabulary, l.Profile)
		if res.Outcome == validate.Invalid {
			break
		}
		next := l.Vocabulary.Playable(res.Bank)
		if len(next) == 0 {
			break
		}
		tok := next[l.Rand.IntN(len(next))]
		if candidate == "" {
			candidate = string(tok)
		} else {
			candidate = candidate + " " + string(tok)
		}
	}
	return candidate
}

// backprop scores every node on the path back to the root - one oracle call
// per visited node, each against that node's own prefix sentence, per §4.6
// step 7a and §9's "consulted once per visited node" note - then rebuilds
// each node's cumulative and mean-descendant score. It returns the full path
// (root first) ready for a single atomic Store.Rollout call, plus the
// winning sentence if the leaf hard-validated.
func (l *Loop) backprop(ctx context.Context, leaf string) ([]store.NodeRecord, string, error) {
	tokens := validate.Tokens(leaf)
	var path []store.NodeRecord
	var sentence string
	var cumulative float64
	var scores []float64

	hard := validate.Hard(leaf, l.Bank, l.Vocabulary, l.Profile)
	winner := ""

	for i, tok := range tokens {
		parent := sentence
		if sentence == "" {
			sentence = tok
		} else {
			sentence = sentence + " " + tok
		}
		isLast := i == len(tokens)-1

		nodeScore, err := oracle.Clamp(l.Oracle.Score(ctx, sentence))
		if err != nil {
			return nil, "", fmt.Errorf("search: oracle: %w", err)
		}
		scores = append(scores, nodeScore)
		cumulative += nodeScore

		status := store.StatusOpen
		meanDescendant := geometricMean(scores)

		if isLast {
			if hard.Outcome == validate.Terminal {
				winner = sentence
				meanDescendant = math.Inf(1)
			} else {
				status = store.StatusHardInvalid
				meanDescendant = math.Inf(-1)
			}
		}

		path = append(path, store.NodeRecord{
			Sentence:       sentence,
			Parent:         parent,
			Score:          nodeScore,
			Cumulative:     cumulative,
			MeanDescendant: meanDescendant,
			Visits:         1,
			Status:         status,
		})
	}
	return path, winner, nil
}

// geometricMean offsets every score so the smallest is >= 1 before taking
// the geometric mean, then removes the offset - the same shift the teacher
// corpus's statistics-heavy code (fsrs scheduling) uses to keep a
// log-domain computation defined when inputs can be negative or zero.
func geometricMean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	min := scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
	}
	offset := math.Abs(min) + 1
	var logSum float64
	for _, s := range scores {
		logSum += math.Log(s + offset)
	}
	return math.Exp(logSum/float64(len(scores))) - offset
}
