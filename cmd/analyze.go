package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forensics/internal/engine"
	"github.com/sells-group/forensics/internal/fact"
	"github.com/sells-group/forensics/internal/store"
	"github.com/sells-group/forensics/internal/xbrl"
)

var (
	analyzeYear        int
	analyzeMarketCap   float64
	analyzeNoMarketCap bool
	analyzeBurnGrowth  float64
	analyzeFormat      string
	analyzeOutput      string
	analyzeSave        bool
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Score one or more fact files",
	Long:  "Analyzes EDGAR company-facts JSON (.json) or fact lists (.csv). Files are scored concurrently and reported in argument order.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		format, err := parseFormat(analyzeFormat)
		if err != nil {
			return err
		}

		opts, err := baseOptions()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("year") {
			opts.FiscalYear = analyzeYear
		}
		if cmd.Flags().Changed("market-cap") {
			mc := analyzeMarketCap
			opts.MarketCap = &mc
		}
		if analyzeNoMarketCap {
			opts.UseMarketCap = false
		}
		if cmd.Flags().Changed("burn-growth") {
			g := analyzeBurnGrowth
			opts.BurnGrowthRate = &g
		}

		concurrency := analyzeConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrency
		}

		var st store.Store
		if analyzeSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		results, err := analyzeFiles(ctx, args, opts, concurrency, st)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if analyzeOutput != "" {
			f, err := os.Create(analyzeOutput)
			if err != nil {
				return eris.Wrap(err, "analyze: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := writeResults(out, format, results); err != nil {
			return err
		}

		if n := countFailed(results); n > 0 {
			return eris.Errorf("analyze: %d of %d files failed", n, len(results))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeYear, "year", 0, "fiscal year to score (default: inferred from the facts)")
	analyzeCmd.Flags().Float64Var(&analyzeMarketCap, "market-cap", 0, "market capitalization for the bankruptcy score")
	analyzeCmd.Flags().BoolVar(&analyzeNoMarketCap, "no-market-cap", false, "use book equity even when a market cap is given")
	analyzeCmd.Flags().Float64Var(&analyzeBurnGrowth, "burn-growth", 0, "year-over-year cash burn growth rate (default: derived from prior year)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", string(formatTable), "output format: table, json, yaml or csv")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write output to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist results to the configured store")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "files analyzed in parallel (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}

// fileResult is the outcome for one input file. Err is set when the file
// could not be loaded or scored.
type fileResult struct {
	Path   string
	Entity string
	ID     string
	Result *engine.Result
	Err    error
}

// analyzeFiles scores each path concurrently. A failing file does not abort
// the others; results keep argument order.
func analyzeFiles(ctx context.Context, paths []string, opts engine.Options, concurrency int, st store.Store) ([]fileResult, error) {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var failed atomic.Int64
	for i, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			r := analyzeFile(gctx, path, opts, st)
			if r.Err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(r.Err))
			} else {
				log.Info("analysis complete",
					zap.Int("fiscal_year", r.Result.FiscalYear),
					zap.String("rating", string(r.Result.Rating.Rating)),
					zap.Int("scores", len(r.Result.Scores)),
				)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "analyze files")
	}

	zap.L().Debug("analyze complete",
		zap.Int("files", len(paths)),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

func analyzeFile(ctx context.Context, path string, opts engine.Options, st store.Store) fileResult {
	r := fileResult{Path: path}

	facts, entity, err := loadFacts(path, cfg.Engine.AnnualFormsOnly)
	if err != nil {
		r.Err = err
		return r
	}
	r.Entity = entity

	res, err := engine.Analyze(facts, opts)
	if err != nil {
		r.Err = eris.Wrapf(err, "analyze %s", path)
		return r
	}
	r.Result = res

	if st != nil {
		a, err := store.NewAnalysis(entity, res, opts.Config)
		if err == nil {
			err = st.SaveAnalysis(ctx, a)
		}
		if err != nil {
			r.Err = eris.Wrapf(err, "save %s", path)
			return r
		}
		r.ID = a.ID
	}
	return r
}

// loadFacts reads a fact file by extension. The entity is the company-facts
// entity name when present, else the file's base name.
func loadFacts(path string, annualOnly bool) ([]fact.Fact, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	base := filepath.Base(path)
	entity := strings.TrimSuffix(base, filepath.Ext(base))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cf, err := xbrl.ParseCompanyFacts(f)
		if err != nil {
			return nil, "", eris.Wrapf(err, "load %s", path)
		}
		if cf.EntityName != "" {
			entity = cf.EntityName
		}
		return xbrl.ToFacts(cf, xbrl.Options{AnnualOnly: annualOnly}), entity, nil
	case ".csv":
		facts, err := fact.ReadCSV(f)
		if err != nil {
			return nil, "", eris.Wrapf(err, "load %s", path)
		}
		return facts, entity, nil
	default:
		return nil, "", eris.Errorf("unsupported file type %q (want .json or .csv)", filepath.Ext(path))
	}
}

func countFailed(results []fileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
