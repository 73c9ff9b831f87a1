package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/compare"
	cfgpkg "github.com/KaramelBytes/equity-cli/internal/config"
	"github.com/KaramelBytes/equity-cli/internal/dataset"
	"github.com/KaramelBytes/equity-cli/internal/resolve"
	"github.com/KaramelBytes/equity-cli/internal/utils"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	flagData string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger   = zap.NewNop()
	logLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	errMark  = color.New(color.FgRed).Sprint("✗")
)

var rootCmd = &cobra.Command{
	Use:   "equity",
	Short: "Education Equity Analyzer: compare a school's funding and scores with its peers",
	Long: `equity compares one school against similar schools in a CSV or XLSX dataset and
reports its relative standing on funding per student, percent Black enrollment and test
scores, as console text, report files, charts or a small web form.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		lvl := zapcore.WarnLevel
		if debug {
			lvl = zapcore.DebugLevel
		}
		logLevel.SetLevel(lvl)
		zc.Level = logLevel
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.equity/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset file, .csv/.tsv/.xlsx (overrides config)")
}

func loadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "%s Warning: failed to read .env: %v\n", warnMark, err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so every command still runs
		fmt.Fprintf(os.Stderr, "%s Warning: failed to load config: %v\n", warnMark, err)
		c = &cfgpkg.Global{DatasetPath: "school_data.csv", MatchThreshold: resolve.DefaultThreshold, PeerMode: "auto", ChartDir: "static", ChartRetentionMin: 60, ListenAddr: ":5001"}
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("data") && flagData != "" {
		cfg.DatasetPath = flagData
	}
}

// loadDataset reads the configured dataset, searching parent directories for
// a relative path that is not found in the working directory.
func loadDataset() (*dataset.Dataset, error) {
	opt := dataset.DefaultOptions()
	delim, err := cfgpkg.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, err
	}
	opt.Delimiter = delim
	if opt.DecimalSeparator, err = cfgpkg.ParseDecimal(cfg.DecimalSeparator); err != nil {
		return nil, err
	}
	if opt.ThousandsSeparator, err = cfgpkg.ParseThousands(cfg.ThousandsSep); err != nil {
		return nil, err
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		return nil, fmt.Errorf("decimal_separator and thousands_separator must differ")
	}
	opt.SheetName = cfg.Sheet
	opt.KeepEmptyRows = cfg.KeepEmptyRows

	path := cfg.DatasetPath
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if found, ferr := utils.FindUpward("", path); ferr == nil {
				path = found
			}
		}
	}
	ds, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	for _, w := range ds.Warnings() {
		logger.Warn("dataset row skipped", zap.String("file", ds.Name()), zap.String("detail", w))
	}
	logger.Debug("dataset loaded", zap.String("path", path), zap.String("schema", string(ds.Schema())), zap.Int("schools", ds.Len()))
	return ds, nil
}

// analyzerFlags are the matching and peer-mode overrides shared by commands.
type analyzerFlags struct {
	fuzzy     bool
	threshold float64
	mode      string
}

func (f *analyzerFlags) register(cmd *cobra.Command, fuzzyDefault bool) {
	cmd.Flags().BoolVar(&f.fuzzy, "fuzzy", fuzzyDefault, "match school names approximately instead of exactly")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "fuzzy match threshold in (0,1] (overrides config)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "peer group: auto | demographic | rest (overrides config)")
}

func (f *analyzerFlags) build(ds *dataset.Dataset, charts *chart.Renderer) (*analyzer.Analyzer, error) {
	threshold := cfg.MatchThreshold
	if f.threshold != 0 {
		threshold = f.threshold
	}
	matchMode := "exact"
	if f.fuzzy {
		matchMode = "fuzzy"
	}
	m, err := resolve.NewMatcher(matchMode, threshold)
	if err != nil {
		return nil, err
	}
	peerMode := cfg.PeerMode
	if f.mode != "" {
		peerMode = f.mode
	}
	mode, err := compare.ParseMode(peerMode, ds.Schema())
	if err != nil {
		return nil, err
	}
	return analyzer.New(ds, analyzer.Options{Matcher: m, Mode: mode, Charts: charts, Logger: logger}), nil
}
