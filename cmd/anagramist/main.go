// Command anagramist is a solver for dinocomics-1663-style cryptoanagrams:
// it grows a persisted search tree of partial sentences under a letter-bank
// budget, guided by a pluggable scoring oracle.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/anagramist/config"
	"github.com/domino14/anagramist/internal/admin"
	"github.com/domino14/anagramist/internal/errs"
	"github.com/domino14/anagramist/internal/oracle"
	"github.com/domino14/anagramist/internal/puzzle"
	"github.com/domino14/anagramist/internal/search"
	"github.com/domino14/anagramist/internal/store"
	"github.com/domino14/anagramist/internal/tui"
	"github.com/domino14/anagramist/internal/vocab"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: anagramist <solve|candidates|check|prune> [flags]")
		return errs.ExitCode(errs.ErrUsage)
	}
	verb, rest := args[0], args[1:]

	switch verb {
	case "solve":
		return cmdSolve(rest)
	case "candidates":
		return cmdCandidates(rest)
	case "check":
		return cmdCheck(rest)
	case "prune":
		return cmdPrune(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown verb %q\n", verb)
		return errs.ExitCode(errs.ErrUsage)
	}
}

func setUpLogging(level string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got quit signal, stopping after current iteration")
		cancel()
	}()
	return ctx, cancel
}

// openAPI wires up a puzzle profile, vocabulary, store and oracle from cfg
// into an admin.API, the shared setup every verb needs after its own flags
// are parsed.
func openAPI(cfg *config.Config) (*admin.API, func(), int) {
	setUpLogging(cfg.LogLevel)

	profile, ok := puzzle.Profiles[cfg.PuzzleProfile]
	if !ok {
		log.Error().Str("profile", cfg.PuzzleProfile).Msg("unknown puzzle profile")
		return nil, func() {}, errs.ExitCode(errs.ErrConfig)
	}

	if err := store.Migrate(cfg.StorePath); err != nil {
		log.Error().Err(err).Msg("migrate")
		return nil, func() {}, errs.ExitCode(errs.Wrap(errs.KindStore, err))
	}
	st, err := store.Open(cfg.StorePath, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return nil, func() {}, errs.ExitCode(errs.Wrap(errs.KindStore, err))
	}

	vocabulary := vocab.New(builtinVocabulary(profile))

	api := &admin.API{
		Bank:       profile.Bank(),
		Vocabulary: vocabulary,
		Profile:    profile,
		Oracle:     oracle.NewHTTPOracle(cfg.OracleAddr),
		Store:      st,
		Log:        log.Logger,
	}
	return api, func() { st.Close() }, 0
}

// builtinVocabulary is the placeholder word list every verb uses: the
// profile's letter bank lowercased and split on whitespace, plus its required
// first token and punctuation alphabet. No flag selects a dictionary file;
// internal/vocab's Load reads one from a reader but the CLI does not call it.
func builtinVocabulary(p *puzzle.Profile) []string {
	words := strings.Fields(strings.ToLower(p.LetterBank))
	words = append(words, p.RequiredFirstToken)
	words = append(words, p.PunctuationAlphabet...)
	return words
}

func cmdSolve(args []string) int {
	cfg := &config.Config{}
	fs := config.NewFlagSet("anagramist-solve")
	cfg.Register(fs)
	if err := fs.Parse(args); err != nil {
		return errs.ExitCode(errs.ErrUsage)
	}

	api, closeFn, code := openAPI(cfg)
	if code != 0 {
		return code
	}
	defer closeFn()

	ctx, cancel := signalContext()
	defer cancel()
	if cfg.MaxTimeSecs > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, time.Duration(cfg.MaxTimeSecs)*time.Second)
		defer timeoutCancel()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	loop := &search.Loop{
		Rand:          rand.New(rand.NewPCG(seed, seed)),
		MaxIterations: cfg.MaxIterations,
	}

	res, err := api.Solve(ctx, api.Profile.RequiredFirstToken, loop)
	if err != nil && err != errs.ErrExhausted {
		log.Error().Err(err).Msg("solve")
		return errs.ExitCode(err)
	}
	if res.Found {
		fmt.Println(res.Solution)
		return 0
	}
	fmt.Fprintln(os.Stderr, "search exhausted without a solution")
	return errs.ExitCode(errs.ErrExhausted)
}

func cmdCandidates(args []string) int {
	cfg := &config.Config{}
	fs := config.NewFlagSet("anagramist-candidates")
	cfg.Register(fs)
	trim := fs.Bool("trim", false, "delete descendants of the given prefix")
	status := fs.Int("status", -1, "override the prefix's status instead of listing candidates")
	topK := fs.Int("k", 10, "how many top candidates/descendants to show")
	if err := fs.Parse(args); err != nil {
		return errs.ExitCode(errs.ErrUsage)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: anagramist candidates [--trim] [-status N] [-k N] <prefix>")
		return errs.ExitCode(errs.ErrUsage)
	}
	prefix := fs.Arg(0)

	api, closeFn, code := openAPI(cfg)
	if code != 0 {
		return code
	}
	defer closeFn()
	ctx := context.Background()

	if *trim || *status >= 0 {
		st := *status
		if *trim && st < 0 {
			// --trim alone keeps the prefix's current status.
			st = store.StatusOpen
			rec, ok, err := api.Store.Get(ctx, prefix)
			if err != nil {
				log.Error().Err(err).Msg("trim")
				return errs.ExitCode(errs.Wrap(errs.KindStore, err))
			}
			if ok {
				st = rec.Status
			}
		}
		modified, deleted, err := api.Trim(ctx, prefix, st)
		if err != nil {
			log.Error().Err(err).Msg("trim")
			return errs.ExitCode(err)
		}
		fmt.Printf("modified=%d deleted=%d\n", modified, deleted)
		return 0
	}

	report, err := api.Inspect(ctx, prefix, *topK)
	if err != nil {
		log.Error().Err(err).Msg("inspect")
		return errs.ExitCode(err)
	}
	printReport(report)
	return 0
}

func printReport(report admin.CandidateReport) {
	fmt.Printf("%s: %d children (%d open, %d invalid, %d excluded)\n",
		report.Prefix, report.Demographics.Total, report.Demographics.Open,
		report.Demographics.Invalid, report.Demographics.Excluded)
	fmt.Println("top children by score:")
	for _, rec := range report.TopChildren {
		fmt.Printf("  %8.3f  %s\n", rec.Score, rec.Sentence)
	}
	fmt.Println("top descendants by mean_descendant_score:")
	for _, rec := range report.TopDescend {
		fmt.Printf("  %8.3f  %s\n", rec.MeanDescendant, rec.Sentence)
	}
}

func cmdCheck(args []string) int {
	cfg := &config.Config{}
	fs := config.NewFlagSet("anagramist-check")
	cfg.Register(fs)
	candidateOnly := fs.Bool("candidate-only", false, "only check the full sentence, not every prefix")
	asJSON := fs.Bool("json", false, "emit a JSON array of [sentence, c1, c2, c3, c4, score, status] tuples")
	interactive := fs.Bool("interactive", false, "launch the interactive tree inspector instead of printing")
	if err := fs.Parse(args); err != nil {
		return errs.ExitCode(errs.ErrUsage)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: anagramist check [--candidate-only] [--json] <sentence>")
		return errs.ExitCode(errs.ErrUsage)
	}
	sentence := fs.Arg(0)

	api, closeFn, code := openAPI(cfg)
	if code != 0 {
		return code
	}
	defer closeFn()
	ctx := context.Background()

	if *interactive {
		if err := tui.Run(ctx, api, sentence); err != nil {
			log.Error().Err(err).Msg("tui")
			return errs.ExitCode(err)
		}
		return 0
	}

	rows, err := api.Check(ctx, sentence, *candidateOnly)
	if err != nil {
		log.Error().Err(err).Msg("check")
		return errs.ExitCode(err)
	}

	if *asJSON {
		printCheckJSON(rows)
	} else {
		for _, r := range rows {
			fmt.Printf("%d\t%s\t%s\n", r.Status, formatScore(r.Score), r.Sentence)
		}
	}
	return 0
}

func printCheckJSON(rows []admin.CheckRow) {
	var sb strings.Builder
	sb.WriteString("[")
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf(
			"[%q,%t,%t,%t,%t,%s,%d]",
			r.Sentence, r.C1, r.C2, r.C3, r.C4, formatScore(r.Score), r.Status))
	}
	sb.WriteString("]")
	fmt.Println(sb.String())
}

func formatScore(score float64) string {
	switch {
	case strconv.FormatFloat(score, 'f', -1, 64) == "+Inf":
		return "Infinity"
	case strconv.FormatFloat(score, 'f', -1, 64) == "-Inf":
		return "-Infinity"
	default:
		return strconv.FormatFloat(score, 'f', 6, 64)
	}
}

func cmdPrune(args []string) int {
	cfg := &config.Config{}
	fs := config.NewFlagSet("anagramist-prune")
	cfg.Register(fs)
	status := fs.Int("status", store.StatusExcluded, "status code to assign trimmed roots")
	if err := fs.Parse(args); err != nil {
		return errs.ExitCode(errs.ErrUsage)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: anagramist prune [-status N] <word> [word...]")
		return errs.ExitCode(errs.ErrUsage)
	}

	api, closeFn, code := openAPI(cfg)
	if code != 0 {
		return code
	}
	defer closeFn()
	ctx := context.Background()

	for _, word := range fs.Args() {
		modified, deleted, err := api.Prune(ctx, word, *status)
		if err != nil {
			log.Error().Err(err).Str("word", word).Msg("prune")
			return errs.ExitCode(err)
		}
		fmt.Printf("%s: modified=%d deleted=%d\n", word, modified, deleted)
	}
	return 0
}
