package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/vytor/blundercheck/internal/analysis"
	"github.com/vytor/blundercheck/internal/config"
	"github.com/vytor/blundercheck/internal/db"
	apperrors "github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
	"github.com/vytor/blundercheck/internal/pgn"
	"github.com/vytor/blundercheck/internal/report"
	"github.com/vytor/blundercheck/internal/repository/sqlite"
	"github.com/vytor/blundercheck/internal/services"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// Streams are the process endpoints the commands talk to.
type Streams struct {
	In            io.Reader
	Out           io.Writer
	Err           io.Writer
	ReadClipboard pgn.ClipboardReader
	// OpenPrompt opens the terminal used for the color question when
	// stdin carries the games.
	OpenPrompt func() (io.ReadWriteCloser, error)
}

// DefaultStreams wires the commands to the real terminal and clipboard.
func DefaultStreams() Streams {
	return Streams{
		In:            os.Stdin,
		Out:           os.Stdout,
		Err:           os.Stderr,
		ReadClipboard: clipboard.ReadAll,
		OpenPrompt: func() (io.ReadWriteCloser, error) {
			return os.OpenFile("/dev/tty", os.O_RDWR, 0)
		},
	}
}

type rootOptions struct {
	configPath string
	color      string
	player     string
	depth      int
	threads    int
	model      string
	csv        string
	plot       string
	dbPath     string
	logLevel   string
	absolute   bool
}

// NewRootCommand creates and returns the root cobra command for blundercheck
func NewRootCommand() *cobra.Command {
	return newRootCommand(DefaultStreams())
}

func newRootCommand(streams Streams) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "blundercheck",
		Short: "Find the blunders and mistakes in your chess games",
		Long: `blundercheck replays each game with Stockfish, converts every evaluation
into a win probability for the analyzed player and flags the moves that
dropped it by more than the mistake or blunder threshold.

A PGN on the clipboard is analyzed as a single game. Otherwise games are
read from standard input until it is exhausted.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, streams, opts)
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./config.toml when present)")
	flags.StringVar(&opts.dbPath, "db", "", "analysis history database (overrides DB_PATH)")
	flags.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (overrides LOG_LEVEL)")

	cmd.Flags().StringVarP(&opts.color, "color", "c", "", "color to analyze: white or black (overrides ANALYZE_COLOR)")
	cmd.Flags().StringVar(&opts.player, "player", "", "analyze the side this player had (overrides PLAYER_NAME)")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "search depth per position (overrides STOCKFISH_DEPTH)")
	cmd.Flags().IntVar(&opts.threads, "threads", 0, "engine threads (overrides STOCKFISH_THREADS)")
	cmd.Flags().StringVar(&opts.model, "model", "", fmt.Sprintf("WDL model, one of %v (overrides WDL_MODEL)", analysis.ModelNames()))
	cmd.Flags().StringVar(&opts.csv, "csv", "", "win probability CSV path (overrides PLOT_CSV)")
	cmd.Flags().StringVar(&opts.plot, "plot", "", "plot document YAML path (overrides PLOT_YAML)")
	cmd.Flags().BoolVar(&opts.absolute, "absolute", false, "flag swings in both directions, not only drops")

	cmd.AddCommand(newHistoryCommand(streams, opts))

	return cmd
}

// loadConfig reads the configuration and applies the flags that were set.
// Analysis flags only exist on the root command.
func loadConfig(cmd *cobra.Command, opts *rootOptions, analyze bool) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, apperrors.NewConfigError("config", err.Error())
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if analyze {
		applyAnalyzeFlags(cmd, opts, &cfg)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, apperrors.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

func applyAnalyzeFlags(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("color") {
		cfg.Color = opts.color
	}
	if flags.Changed("player") {
		cfg.PlayerName = opts.player
	}
	if flags.Changed("depth") {
		cfg.StockfishDepth = opts.depth
	}
	if flags.Changed("threads") {
		cfg.StockfishThreads = opts.threads
	}
	if flags.Changed("model") {
		cfg.WDLModel = opts.model
	}
	if flags.Changed("csv") {
		cfg.PlotCSV = opts.csv
	}
	if flags.Changed("plot") {
		cfg.PlotYAML = opts.plot
	}
	if flags.Changed("absolute") && opts.absolute {
		cfg.AssessmentPolicy = analysis.PolicyAbsolute.String()
	}
}

func commandContext(cmd *cobra.Command, streams Streams, cfg config.Config) context.Context {
	log := logger.New(
		logger.WithOutput(streams.Err),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
	)
	logger.SetDefault(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.NewContext(ctx, log)
}

func runAnalyze(cmd *cobra.Command, streams Streams, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts, true)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd, streams, cfg)
	log := logger.FromContext(ctx)

	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("stockfish_depth=%d", cfg.StockfishDepth)
	log.Debug("stockfish_threads=%d", cfg.StockfishThreads)
	log.Debug("wdl_model=%s", cfg.WDLModel)
	log.Debug("assessment_policy=%s", cfg.AssessmentPolicy)

	model, err := cfg.Model()
	if err != nil {
		return apperrors.NewConfigError("WDL_MODEL", err.Error())
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return apperrors.NewConfigError("ASSESSMENT_POLICY", err.Error())
	}

	source := pgn.SelectSource(streams.ReadClipboard, streams.In)
	resolver, closePrompt := newColorResolver(cfg, source, streams)
	defer closePrompt()

	var serviceOpts []services.ServiceOption
	serviceOpts = append(serviceOpts, services.WithProgress(report.NewProgressIndicator(streams.Err)))
	if cfg.DBPath != "" {
		database, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("open history database: %w", err))
		}
		defer func() {
			log.Debug("closing database connection")
			database.Close()
		}()
		serviceOpts = append(serviceOpts, services.WithRepository(sqlite.NewAnalysisRepository(database.DB)))
	}

	var analyzed int
	err = analysis.WithEngine(ctx, cfg.Engine(), func(engine *analysis.Engine) error {
		svc := services.NewAnalysisService(engine, resolver, report.NewReporter(streams.Out), services.AnalysisConfig{
			Depth:      cfg.StockfishDepth,
			Model:      model,
			Classifier: classifier,
			PlotCSV:    cfg.PlotCSV,
			PlotYAML:   cfg.PlotYAML,
		}, serviceOpts...)

		var err error
		analyzed, err = svc.AnalyzeAll(ctx, source)
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) || errors.Is(err, context.Canceled) {
			return err
		}
		return apperrors.NewEngineError("stockfish session failed", err)
	}

	log.Info("analyzed %d games", analyzed)
	return nil
}

// newColorResolver asks on stdin when the game came from the clipboard and
// on the terminal when stdin carries the games.
func newColorResolver(cfg config.Config, source pgn.Source, streams Streams) (*pgn.ColorResolver, func()) {
	if source.Mode() == "paste" {
		return pgn.NewColorResolver(cfg.Color, cfg.PlayerName, streams.In, streams.Err), func() {}
	}
	if cfg.Color != "" || streams.OpenPrompt == nil {
		return pgn.NewColorResolver(cfg.Color, cfg.PlayerName, nil, nil), func() {}
	}

	tty, err := streams.OpenPrompt()
	if err != nil {
		logger.Default().Debug("no terminal for prompting: %v", err)
		return pgn.NewColorResolver(cfg.Color, cfg.PlayerName, nil, nil), func() {}
	}
	return pgn.NewColorResolver(cfg.Color, cfg.PlayerName, tty, tty), func() { _ = tty.Close() }
}
