package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	"github.com/wardweistra/parkour-spot-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

// SyncSourceAdapter implements sync source persistence in Postgres.
type SyncSourceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSyncSourceAdapter creates a new sync source adapter.
func NewSyncSourceAdapter(client *postgres.Client) repositories.SyncSourceRepository {
	return &SyncSourceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create registers a new sync source.
func (a *SyncSourceAdapter) Create(ctx context.Context, source *entities.SyncSource) error {
	query, args, err := a.db.Insert("sync_sources").
		Rows(goqu.Record{
			"id":         source.ID,
			"name":       source.Name,
			"url":        source.URL,
			"format":     string(source.Format),
			"enabled":    source.Enabled,
			"created_at": source.CreatedAt,
			"updated_at": source.UpdatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync source insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create sync source", err)
	}

	return nil
}

// GetByID retrieves a sync source by ID.
func (a *SyncSourceAdapter) GetByID(ctx context.Context, id string) (*entities.SyncSource, error) {
	query, args, err := a.selectSources().
		Where(goqu.Ex{"s.id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sync source select query", err)
	}

	source, err := scanSyncSource(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sync source with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get sync source", err)
	}

	return source, nil
}

// List retrieves all sync sources.
func (a *SyncSourceAdapter) List(ctx context.Context) ([]*entities.SyncSource, error) {
	query, args, err := a.selectSources().
		Order(goqu.I("s.created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sync source list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query sync sources", err)
	}
	defer rows.Close()

	sources := []*entities.SyncSource{}
	for rows.Next() {
		source, err := scanSyncSource(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan sync source", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sync sources", err)
	}

	return sources, nil
}

// Update updates a sync source's name, url, format and enabled flag.
func (a *SyncSourceAdapter) Update(ctx context.Context, source *entities.SyncSource) error {
	query, args, err := a.db.Update("sync_sources").
		Set(goqu.Record{
			"name":       source.Name,
			"url":        source.URL,
			"format":     string(source.Format),
			"enabled":    source.Enabled,
			"updated_at": source.UpdatedAt,
		}).
		Where(goqu.Ex{"id": source.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync source update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update sync source", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("sync source with id %s not found", source.ID))
	}

	return nil
}

// RecordRun stores the statistics of one ingestion pass. Only the latest run
// per source is kept.
func (a *SyncSourceAdapter) RecordRun(ctx context.Context, run *entities.SyncRun) error {
	query, args, err := a.db.Insert("sync_runs").
		Rows(goqu.Record{
			"source_id": run.SourceID,
			"ran_at":    run.RanAt,
			"created":   run.Created,
			"updated":   run.Updated,
			"skipped":   run.Skipped,
			"geocoded":  run.Geocoded,
			"failed":    run.Failed,
		}).
		OnConflict(goqu.DoUpdate("source_id", goqu.Record{
			"ran_at":   run.RanAt,
			"created":  run.Created,
			"updated":  run.Updated,
			"skipped":  run.Skipped,
			"geocoded": run.Geocoded,
			"failed":   run.Failed,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync run upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record sync run", err)
	}

	return nil
}

// Delete removes a sync source and its recorded run.
func (a *SyncSourceAdapter) Delete(ctx context.Context, id string) error {
	runQuery, runArgs, err := a.db.Delete("sync_runs").
		Where(goqu.Ex{"source_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync run delete query", err)
	}

	sourceQuery, sourceArgs, err := a.db.Delete("sync_sources").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sync source delete query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin sync source delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, runQuery, runArgs...); err != nil {
		return apperrors.NewInternalError("failed to delete sync run", err)
	}
	if _, err := tx.ExecContext(ctx, sourceQuery, sourceArgs...); err != nil {
		return apperrors.NewInternalError("failed to delete sync source", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit sync source delete", err)
	}

	return nil
}

func (a *SyncSourceAdapter) selectSources() *goqu.SelectDataset {
	return a.db.Select(
		"s.id", "s.name", "s.url", "s.format", "s.enabled", "s.created_at", "s.updated_at",
		"r.ran_at", "r.created", "r.updated", "r.skipped", "r.geocoded", "r.failed",
	).
		From(goqu.T("sync_sources").As("s")).
		LeftJoin(
			goqu.T("sync_runs").As("r"),
			goqu.On(goqu.Ex{"r.source_id": goqu.I("s.id")}),
		)
}

func scanSyncSource(row rowScanner) (*entities.SyncSource, error) {
	source := &entities.SyncSource{}

	var (
		format                    string
		ranAt                     sql.NullTime
		created, updated, skipped sql.NullInt64
		geocoded, failed          sql.NullInt64
	)

	err := row.Scan(
		&source.ID, &source.Name, &source.URL, &format, &source.Enabled,
		&source.CreatedAt, &source.UpdatedAt,
		&ranAt, &created, &updated, &skipped, &geocoded, &failed,
	)
	if err != nil {
		return nil, err
	}

	source.Format = entities.FeedFormat(format)
	if ranAt.Valid {
		source.LastRun = &entities.SyncRun{
			SourceID: source.ID,
			RanAt:    ranAt.Time,
			Created:  int(created.Int64),
			Updated:  int(updated.Int64),
			Skipped:  int(skipped.Int64),
			Geocoded: int(geocoded.Int64),
			Failed:   int(failed.Int64),
		}
	}

	return source, nil
}
