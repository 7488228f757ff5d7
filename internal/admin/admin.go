// Package admin implements the query/admin API the CLI (and the TUI)
// drive: inspecting the tree, trimming subtrees, checking a candidate
// sentence's validity prefix-by-prefix, pruning every stored sentence
// touching a word, and running the search loop to completion.
package admin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/domino14/anagramist/internal/bank"
	"github.com/domino14/anagramist/internal/errs"
	"github.com/domino14/anagramist/internal/oracle"
	"github.com/domino14/anagramist/internal/puzzle"
	"github.com/domino14/anagramist/internal/search"
	"github.com/domino14/anagramist/internal/store"
	"github.com/domino14/anagramist/internal/validate"
	"github.com/domino14/anagramist/internal/vocab"
)

// API bundles everything the CLI and TUI need to drive one puzzle run.
type API struct {
	Bank       bank.Bank
	Vocabulary *vocab.Vocabulary
	Profile    *puzzle.Profile
	Oracle     oracle.Oracle
	Store      *store.Store
	Log        zerolog.Logger
}

// CandidateReport is the result of Inspect: a prefix's immediate-child
// demographics plus the top-k next candidates and top-k descendants, per
// the `candidates` CLI verb's contract.
type CandidateReport struct {
	Prefix       string
	Demographics store.Demographics
	TopChildren  []store.NodeRecord
	TopDescend   []store.NodeRecord
}

// Inspect reports on the subtree rooted at prefix.
func (a *API) Inspect(ctx context.Context, prefix string, k int) (CandidateReport, error) {
	demo, err := a.Store.ChildrenDemographics(ctx, prefix)
	if err != nil {
		return CandidateReport{}, errs.Wrap(errs.KindStore, err)
	}
	children, err := a.Store.TopChildren(ctx, prefix, k)
	if err != nil {
		return CandidateReport{}, errs.Wrap(errs.KindStore, err)
	}
	descendants, err := a.Store.TopDescendants(ctx, prefix, k)
	if err != nil {
		return CandidateReport{}, errs.Wrap(errs.KindStore, err)
	}
	return CandidateReport{
		Prefix:       prefix,
		Demographics: demo,
		TopChildren:  children,
		TopDescend:   descendants,
	}, nil
}

// Trim marks root with status and deletes every one of its descendants. A
// status of zero restores root to StatusOpen.
func (a *API) Trim(ctx context.Context, root string, status int) (modified, deleted int, err error) {
	modified, deleted, err = a.Store.Trim(ctx, root, status)
	if err != nil {
		return 0, 0, errs.Wrap(errs.KindStore, err)
	}
	return modified, deleted, nil
}

// CheckRow is one row of Check's output: a prefix, its four soft/hard
// constraint flags, its persisted or just-computed score, and its status.
type CheckRow struct {
	Sentence string
	C1       bool // contained in bank
	C2       bool // feasible continuation exists (vowel floor + longest-word)
	C3       bool // punctuation in order
	C4       bool // anchors satisfied (first token, suffix, word-length structure)
	Score    float64
	Status   int
}

// Check validates sentence one prefix at a time (or only the full sentence
// if candidateOnly), consulting the store for a persisted score where one
// exists and falling back to the oracle for any open prefix with no stored
// record.
func (a *API) Check(ctx context.Context, sentence string, candidateOnly bool) ([]CheckRow, error) {
	tokens := validate.Tokens(sentence)
	var rows []CheckRow

	start := 0
	if candidateOnly {
		start = len(tokens) - 1
		if start < 0 {
			start = 0
		}
	}

	for i := start; i < len(tokens); i++ {
		prefix := strings.Join(tokens[:i+1], " ")
		row, err := a.checkOne(ctx, prefix, i == len(tokens)-1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(tokens) == 0 {
		row, err := a.checkOne(ctx, "", true)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *API) checkOne(ctx context.Context, prefix string, isFull bool) (CheckRow, error) {
	res := validate.Soft(prefix, a.Bank, a.Vocabulary, a.Profile)
	if isFull && res.Outcome == validate.Open && res.Bank.IsEmpty() {
		res = validate.Hard(prefix, a.Bank, a.Vocabulary, a.Profile)
	}

	row := CheckRow{
		Sentence: prefix,
		C1:       res.Flags.Contained,
		C2:       res.Flags.Feasible,
		C3:       res.Flags.PunctuationInOrder,
		C4:       res.Flags.AnchorsOK,
	}

	switch res.Outcome {
	case validate.Invalid:
		row.Score = math.Inf(-1)
		row.Status = store.StatusHardInvalid
		return row, nil
	case validate.Terminal:
		row.Score = math.Inf(1)
		row.Status = store.StatusOpen
		return row, nil
	}

	if rec, ok, err := a.Store.Get(ctx, prefix); err == nil && ok {
		row.Score = rec.Score
		row.Status = rec.Status
		return row, nil
	} else if err != nil {
		return CheckRow{}, errs.Wrap(errs.KindStore, err)
	}

	score, err := a.Oracle.Score(ctx, prefix)
	if err != nil {
		return CheckRow{}, errs.Wrap(errs.KindOracle, err)
	}
	row.Score = score
	row.Status = store.StatusOpen
	return row, nil
}

// Prune finds every stored sentence containing word and trims each at the
// first occurrence of that word, repeating until every stored sentence
// containing word has status.
func (a *API) Prune(ctx context.Context, word string, status int) (modifiedTotal, deletedTotal int, err error) {
	for {
		root, ok, err := a.firstContaining(ctx, word, status)
		if err != nil {
			return modifiedTotal, deletedTotal, err
		}
		if !ok {
			return modifiedTotal, deletedTotal, nil
		}
		modified, deleted, err := a.Trim(ctx, root, status)
		if err != nil {
			return modifiedTotal, deletedTotal, err
		}
		if modified > 0 {
			modifiedTotal += modified
		}
		if deleted > 0 {
			deletedTotal += deleted
		}
	}
}

// firstContaining finds a sentence whose status is not already status and
// whose token list contains word, and returns the prefix truncated right
// after word's first occurrence - the node Prune should trim.
func (a *API) firstContaining(ctx context.Context, word string, status int) (string, bool, error) {
	all, err := a.Store.All(ctx)
	if err != nil {
		return "", false, errs.Wrap(errs.KindStore, err)
	}
	for _, rec := range all {
		if rec.Status == status {
			continue
		}
		tokens := validate.Tokens(rec.Sentence)
		for i, tok := range tokens {
			if tok == word {
				return strings.Join(tokens[:i+1], " "), true, nil
			}
		}
	}
	return "", false, nil
}

// Solve runs the search loop to completion: until a winning sentence is
// found, the budget is exhausted, or ctx is cancelled.
func (a *API) Solve(ctx context.Context, root string, rnd *search.Loop) (search.Result, error) {
	rnd.Bank = a.Bank
	rnd.Vocabulary = a.Vocabulary
	rnd.Profile = a.Profile
	rnd.Oracle = a.Oracle
	rnd.Store = a.Store
	rnd.Log = a.Log

	res, err := rnd.Run(ctx, root)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return res, fmt.Errorf("admin: solve: %w", err)
	}
	if !res.Found {
		return res, errs.ErrExhausted
	}
	return res, nil
}
