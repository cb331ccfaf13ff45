package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vytor/blundercheck/internal/analysis"
	"github.com/vytor/blundercheck/internal/db"
	apperrors "github.com/vytor/blundercheck/internal/errors"
	"github.com/vytor/blundercheck/internal/logger"
	"github.com/vytor/blundercheck/internal/models"
	"github.com/vytor/blundercheck/internal/report"
	"github.com/vytor/blundercheck/internal/repository/sqlite"
)

type historyOptions struct {
	color  string
	kind   string
	player string
	limit  int
	runs   bool
}

func newHistoryCommand(streams Streams, root *rootOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List blunders and mistakes from previous analyses",
		Long: `Show the annotations recorded by earlier runs, newest game first.
Recording is enabled by setting DB_PATH or passing --db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, streams, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.color, "color", "c", "", "only games analyzed as white or black")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "only blunders or mistakes")
	cmd.Flags().StringVar(&opts.player, "player", "", "only games with this player")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum rows to show")
	cmd.Flags().BoolVar(&opts.runs, "runs", false, "list analyzed games instead of annotations")

	return cmd
}

func runHistory(cmd *cobra.Command, streams Streams, root *rootOptions, opts *historyOptions) error {
	cfg, err := loadConfig(cmd, root, false)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return apperrors.NewConfigError("DB_PATH", "no history database configured, set DB_PATH or pass --db")
	}

	filter := models.HistoryFilter{Player: opts.player, Limit: opts.limit}
	if opts.color != "" {
		c, err := analysis.ParseColor(opts.color)
		if err != nil {
			return apperrors.NewConfigError("color", err.Error())
		}
		filter.Color = analysis.ColorName(c)
	}
	if opts.kind != "" {
		kind, err := analysis.ParseAssessment(trimPlural(opts.kind))
		if err != nil || kind == analysis.AssessmentNone {
			return apperrors.NewConfigError("kind", fmt.Sprintf("expected blunder or mistake, got %q", opts.kind))
		}
		filter.Kind = kind.String()
	}

	ctx := commandContext(cmd, streams, cfg)
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("open history database: %w", err))
	}
	defer database.Close()

	repo := sqlite.NewAnalysisRepository(database.DB)
	out := cmd.OutOrStdout()

	if opts.runs {
		runs, err := repo.ListRuns(ctx, filter)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		printRuns(out, runs)
		return nil
	}

	annotations, err := repo.ListAnnotations(ctx, filter)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	printAnnotations(out, annotations)
	return nil
}

func printRuns(w io.Writer, runs []models.AnalysisRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No analyzed games recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tWHITE\tBLACK\tCOLOR\tBLUNDERS\tMISTAKES\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.White, r.Black, r.Color, r.Blunders, r.Mistakes, r.ID)
	}
	_ = tw.Flush()
}

func printAnnotations(w io.Writer, annotations []models.AnnotationWithRun) {
	if len(annotations) == 0 {
		fmt.Fprintln(w, "No annotations recorded.")
		return
	}
	colorize := logger.IsTerminal(w)
	run := ""
	for _, a := range annotations {
		if a.RunID != run {
			run = a.RunID
			header := fmt.Sprintf("%s vs %s (%s)", a.White, a.Black, a.Color)
			if colorize {
				header = color.New(color.Bold).Sprint(header)
			}
			fmt.Fprintln(w, header)
		}
		c, _ := analysis.ParseColor(a.Color)
		fmt.Fprintf(w, "  %s:%s: %s\n", report.MoveLabel(a.Ply, a.SAN), a.Kind, report.AnalysisURL(a.FEN, c))
	}
}

func trimPlural(s string) string {
	if n := len(s); n > 1 && (s[n-1] == 's' || s[n-1] == 'S') {
		return s[:n-1]
	}
	return s
}
