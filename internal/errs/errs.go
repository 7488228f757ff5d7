// Package errs defines the sentinel error kinds this module's components
// wrap their failures in, and the exit-code mapping the CLI uses to turn
// one of those kinds into a process exit status.
package errs

import "errors"

// Kind classifies an error for exit-code and logging purposes.
type Kind int

const (
	_ Kind = iota
	KindUsage
	KindConfig
	KindStore
	KindValidation
	KindOracle
	KindInvariant
)

var (
	// ErrUsage marks a bad CLI invocation (missing argument, unknown flag).
	ErrUsage = errors.New("errs: usage error")
	// ErrConfig marks a misconfigured run (bad flag value, missing env var).
	ErrConfig = errors.New("errs: config error")
	// ErrStore marks a persistence failure (open, migrate, query).
	ErrStore = errors.New("errs: store error")
	// ErrValidation marks a validator contract violation.
	ErrValidation = errors.New("errs: validation failure")
	// ErrOracle marks an oracle contract violation or transport failure.
	ErrOracle = errors.New("errs: oracle error")
	// ErrInvariant marks a violated data-model invariant (I1-I5); this
	// should never happen in a correctly operating process and is only
	// caught so it can be logged clearly before exit.
	ErrInvariant = errors.New("errs: invariant violation")
)

// Wrap attaches kind's sentinel to err; the result unwraps to both, so
// errors.Is(result, ErrUsage) (etc.) and errors.Is(result, err) keep working
// after the wrap.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	sentinel := sentinelFor(kind)
	return &kindError{kind: kind, sentinel: sentinel, err: err}
}

type kindError struct {
	kind     Kind
	sentinel error
	err      error
}

func (e *kindError) Error() string { return e.sentinel.Error() + ": " + e.err.Error() }
func (e *kindError) Unwrap() []error {
	return []error{e.sentinel, e.err}
}

func sentinelFor(kind Kind) error {
	switch kind {
	case KindUsage:
		return ErrUsage
	case KindConfig:
		return ErrConfig
	case KindStore:
		return ErrStore
	case KindValidation:
		return ErrValidation
	case KindOracle:
		return ErrOracle
	case KindInvariant:
		return ErrInvariant
	default:
		return ErrInvariant
	}
}

// ExitCode maps an error to the process exit code §6 specifies: 0 for a nil
// error (success), 1 for any usage/config
// mistake, 2 for a completed-but-unsuccessful search (exhaustion), and 1
// for everything else (store/oracle/validation/invariant failures are
// still operator mistakes or environment problems, not "no solution").
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrExhausted):
		return 2
	case errors.Is(err, ErrUsage), errors.Is(err, ErrConfig):
		return 1
	default:
		return 1
	}
}

// ErrExhausted marks a `solve` run that reached its iteration/time budget
// without finding a hard-validated solution - not a failure, just an
// incomplete search.
var ErrExhausted = errors.New("errs: search exhausted without a solution")
