package repositories

import (
	"context"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// SyncSourceRepository defines the interface for sync source persistence
type SyncSourceRepository interface {
	// Create registers a new sync source
	Create(ctx context.Context, source *entities.SyncSource) error

	// GetByID retrieves a sync source by ID
	GetByID(ctx context.Context, id string) (*entities.SyncSource, error)

	// List retrieves all sync sources
	List(ctx context.Context) ([]*entities.SyncSource, error)

	// Update updates a sync source (name, url, enabled flag)
	Update(ctx context.Context, source *entities.SyncSource) error

	// RecordRun stores the statistics of an ingestion pass
	RecordRun(ctx context.Context, run *entities.SyncRun) error

	// Delete removes a sync source
	Delete(ctx context.Context, id string) error
}
