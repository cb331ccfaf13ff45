package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/blundercheck/internal/logger"
	"github.com/vytor/blundercheck/internal/models"
	"github.com/vytor/blundercheck/internal/repository"
)

var runColumns = []string{
	"r.id", "r.event", "r.site", "r.date", "r.white", "r.black", "r.result", "r.color",
	"r.model", "r.depth", "r.plies", "r.blunders", "r.mistakes", "r.paste_url", "r.created_at",
}

type analysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new AnalysisRepository implementation
func NewAnalysisRepository(db *sql.DB) repository.AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Insert(ctx context.Context, run models.AnalysisRun) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	log.Debug("inserting analysis run: id=%s, color=%s, annotations=%d", run.ID, run.Color, len(run.Annotations))

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Insert("analysis_runs").
			Columns("id", "event", "site", "date", "white", "black", "result", "color",
				"model", "depth", "plies", "blunders", "mistakes", "paste_url", "created_at").
			Values(run.ID, run.Event, run.Site, run.Date, run.White, run.Black, run.Result, run.Color,
				run.Model, run.Depth, run.Plies, run.Blunders, run.Mistakes, run.PasteURL, run.CreatedAt).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert analysis run: %v", err)
			return err
		}

		if len(run.Annotations) == 0 {
			return nil
		}
		insert := sqlBuilder.Insert("annotations").
			Columns("run_id", "ply", "san", "kind", "win_probability", "delta", "fen")
		for _, a := range run.Annotations {
			insert = insert.Values(run.ID, a.Ply, a.SAN, a.Kind, a.WinProbability, a.Delta, a.FEN)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert annotations: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Debug("analysis run inserted: id=%s", run.ID)
	return run.ID, nil
}

func (r *analysisRepository) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("getting analysis run: id=%s", id)

	query, args, err := sqlBuilder.Select(runColumns...).
		From("analysis_runs r").
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("analysis run not found: id=%s", id)
		} else {
			log.Error("failed to get analysis run: %v", err)
		}
		return nil, err
	}

	query, args, err = sqlBuilder.Select("id", "run_id", "ply", "san", "kind", "win_probability", "delta", "fen").
		From("annotations").
		Where(squirrel.Eq{"run_id": id}).
		OrderBy("ply ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to load annotations: %v", err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.StoredAnnotation
		if err := rows.Scan(&a.ID, &a.RunID, &a.Ply, &a.SAN, &a.Kind, &a.WinProbability, &a.Delta, &a.FEN); err != nil {
			log.Error("failed to scan annotation row: %v", err)
			return nil, err
		}
		run.Annotations = append(run.Annotations, a)
	}
	return run, rows.Err()
}

func (r *analysisRepository) ListRuns(ctx context.Context, filter models.HistoryFilter) ([]models.AnalysisRun, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("listing analysis runs: color=%s, player=%s", filter.Color, filter.Player)

	limit, offset := pagination(filter.Limit, filter.Offset)
	query := applyRunFilter(sqlBuilder.Select(runColumns...).From("analysis_runs r"), filter).
		OrderBy("r.created_at DESC", "r.rowid DESC").
		Limit(limit).Offset(offset)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list analysis runs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			log.Error("failed to scan analysis run row: %v", err)
			return nil, err
		}
		runs = append(runs, *run)
	}
	log.Debug("found %d analysis runs", len(runs))
	return runs, rows.Err()
}

func (r *analysisRepository) ListAnnotations(ctx context.Context, filter models.HistoryFilter) ([]models.AnnotationWithRun, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("listing annotations: color=%s, kind=%s, player=%s", filter.Color, filter.Kind, filter.Player)

	limit, offset := pagination(filter.Limit, filter.Offset)
	query := sqlBuilder.Select(
		"a.id", "a.run_id", "a.ply", "a.san", "a.kind", "a.win_probability", "a.delta", "a.fen",
		"r.white", "r.black", "r.color", "r.created_at",
	).From("annotations a").
		Join("analysis_runs r ON r.id = a.run_id")
	query = applyRunFilter(query, filter)
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"a.kind": strings.ToLower(filter.Kind)})
	}
	query = query.OrderBy("r.created_at DESC", "r.rowid DESC", "a.ply ASC").
		Limit(limit).Offset(offset)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list annotations: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.AnnotationWithRun
	for rows.Next() {
		var a models.AnnotationWithRun
		if err := rows.Scan(&a.ID, &a.RunID, &a.Ply, &a.SAN, &a.Kind, &a.WinProbability, &a.Delta, &a.FEN,
			&a.White, &a.Black, &a.Color, &a.CreatedAt); err != nil {
			log.Error("failed to scan annotation row: %v", err)
			return nil, err
		}
		out = append(out, a)
	}
	log.Debug("found %d annotations", len(out))
	return out, rows.Err()
}

func (r *analysisRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Info("deleting analysis run: id=%s", id)

	query, args, err := sqlBuilder.Delete("analysis_runs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete analysis run: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func applyRunFilter(query squirrel.SelectBuilder, filter models.HistoryFilter) squirrel.SelectBuilder {
	if filter.Color != "" {
		query = query.Where(squirrel.Eq{"r.color": strings.ToLower(filter.Color)})
	}
	if filter.Player != "" {
		player := strings.ToLower(filter.Player)
		query = query.Where(squirrel.Or{
			squirrel.Expr("LOWER(r.white) = ?", player),
			squirrel.Expr("LOWER(r.black) = ?", player),
		})
	}
	return query
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := row.Scan(&run.ID, &run.Event, &run.Site, &run.Date, &run.White, &run.Black, &run.Result, &run.Color,
		&run.Model, &run.Depth, &run.Plies, &run.Blunders, &run.Mistakes, &run.PasteURL, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
