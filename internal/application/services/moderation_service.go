package services

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

// ModerationService implements the moderator tooling: storage sweeps,
// bulk deletion, duplicate marking and cached-field repair.
type ModerationService struct {
	spots      repositories.SpotRepository
	sources    repositories.SyncSourceRepository
	spotSvc    *SpotService
	imageStore providers.ImageStore
}

// NewModerationService creates a new moderation service
func NewModerationService(
	spots repositories.SpotRepository,
	sources repositories.SyncSourceRepository,
	spotSvc *SpotService,
	imageStore providers.ImageStore,
) *ModerationService {
	return &ModerationService{
		spots:      spots,
		sources:    sources,
		spotSvc:    spotSvc,
		imageStore: imageStore,
	}
}

// MissingImage is a spot image reference that no stored blob backs
type MissingImage struct {
	SpotID string `json:"spot_id"`
	Ref    string `json:"ref"`
}

// CleanupUnusedImages deletes stored images no spot references anymore and
// returns the deleted references.
func (s *ModerationService) CleanupUnusedImages(ctx context.Context, actor entities.Actor) ([]string, error) {
	if !actor.IsModerator() {
		return nil, apperrors.NewForbiddenError("only moderators can run storage sweeps")
	}

	referenced, err := s.referencedImages(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.imageStore.List(ctx)
	if err != nil {
		return nil, err
	}

	deleted := []string{}
	for _, ref := range stored {
		if referenced[ref] {
			continue
		}
		if err := s.imageStore.Delete(ctx, ref); err != nil {
			log.Printf("Warning: Failed to delete unused image %s: %v", ref, err)
			continue
		}
		deleted = append(deleted, ref)
	}

	return deleted, nil
}

// FindMissingImages returns spot image references whose stored blob is gone
func (s *ModerationService) FindMissingImages(ctx context.Context, actor entities.Actor) ([]MissingImage, error) {
	if !actor.IsModerator() {
		return nil, apperrors.NewForbiddenError("only moderators can run storage sweeps")
	}

	spots, err := s.spots.List(ctx, repositories.SpotFilter{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}

	missing := []MissingImage{}
	for _, spot := range spots {
		for _, ref := range spot.Images {
			exists, err := s.imageStore.Exists(ctx, ref)
			if err != nil {
				log.Printf("Warning: Failed to check image %s: %v", ref, err)
				continue
			}
			if !exists {
				missing = append(missing, MissingImage{SpotID: spot.ID, Ref: ref})
			}
		}
	}

	return missing, nil
}

// FindOrphanedSpots returns spots whose provenance is broken: their sync
// source no longer exists, or their duplicate-of reference points nowhere.
func (s *ModerationService) FindOrphanedSpots(ctx context.Context, actor entities.Actor) ([]*entities.Spot, error) {
	if !actor.IsModerator() {
		return nil, apperrors.NewForbiddenError("only moderators can run storage sweeps")
	}

	sources, err := s.sources.List(ctx)
	if err != nil {
		return nil, err
	}
	sourceIDs := make(map[string]bool, len(sources))
	for _, source := range sources {
		sourceIDs[source.ID] = true
	}

	spots, err := s.spots.List(ctx, repositories.SpotFilter{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	spotIDs := make(map[string]bool, len(spots))
	for _, spot := range spots {
		spotIDs[spot.ID] = true
	}

	orphaned := []*entities.Spot{}
	for _, spot := range spots {
		if spot.SourceID != "" && !sourceIDs[spot.SourceID] {
			orphaned = append(orphaned, spot)
			continue
		}
		if spot.DuplicateOf != "" && !spotIDs[spot.DuplicateOf] {
			orphaned = append(orphaned, spot)
		}
	}

	return orphaned, nil
}

// DeleteSpots removes multiple spots in one pass. Individual failures are
// collected, not fatal; the returned slice lists the IDs actually deleted.
func (s *ModerationService) DeleteSpots(ctx context.Context, ids []string, hard bool, actor entities.Actor) ([]string, error) {
	if !actor.IsModerator() {
		return nil, apperrors.NewForbiddenError("only moderators can delete spots")
	}

	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := s.spotSvc.Delete(ctx, id, hard, actor); err != nil {
			log.Printf("Warning: Failed to delete spot %s: %v", id, err)
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// UploadReplacementImage replaces one of a spot's images in place, keeping
// the image order. The old blob is deleted best-effort.
func (s *ModerationService) UploadReplacementImage(ctx context.Context, spotID string, index int, data io.Reader, contentType string, actor entities.Actor) (string, error) {
	if !actor.IsModerator() {
		return "", apperrors.NewForbiddenError("only moderators can replace images")
	}

	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(spot.Images) {
		return "", apperrors.NewFieldValidationError("index", "image index out of range")
	}

	ref, err := s.imageStore.Save(ctx, data, contentType)
	if err != nil {
		return "", err
	}

	oldRef := spot.Images[index]
	spot.Images[index] = ref
	spot.UpdatedAt = time.Now()
	if err := s.spots.Update(ctx, spot); err != nil {
		// Roll the blob back so a failed update leaves no stray image
		if delErr := s.imageStore.Delete(ctx, ref); delErr != nil {
			log.Printf("Warning: Failed to remove replacement image %s: %v", ref, delErr)
		}
		return "", err
	}

	if err := s.imageStore.Delete(ctx, oldRef); err != nil {
		log.Printf("Warning: Failed to delete replaced image %s: %v", oldRef, err)
	}

	return ref, nil
}

// MarkDuplicate links a spot to the spot it duplicates and soft-deletes it
func (s *ModerationService) MarkDuplicate(ctx context.Context, spotID, duplicateOf string, actor entities.Actor) error {
	if !actor.IsModerator() {
		return apperrors.NewForbiddenError("only moderators can mark duplicates")
	}
	if spotID == duplicateOf {
		return apperrors.NewFieldValidationError("duplicate_of", "a spot cannot duplicate itself")
	}

	if _, err := s.spots.GetByID(ctx, duplicateOf); err != nil {
		return err
	}

	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return err
	}

	spot.DuplicateOf = duplicateOf
	spot.UpdatedAt = time.Now()
	if err := s.spots.Update(ctx, spot); err != nil {
		return err
	}

	return s.spotSvc.Delete(ctx, spotID, false, actor)
}

// UpdateCachedSourceNames rewrites the denormalized source name on every
// spot imported from a renamed source. Returns the number of spots touched.
func (s *ModerationService) UpdateCachedSourceNames(ctx context.Context, actor entities.Actor) (int, error) {
	if !actor.IsModerator() {
		return 0, apperrors.NewForbiddenError("only moderators can run cache repairs")
	}

	sources, err := s.sources.List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, source := range sources {
		spots, err := s.spots.List(ctx, repositories.SpotFilter{SourceID: source.ID, IncludeDeleted: true})
		if err != nil {
			return updated, err
		}
		for _, spot := range spots {
			if spot.SourceName == source.Name {
				continue
			}
			spot.SourceName = source.Name
			spot.UpdatedAt = time.Now()
			if err := s.spots.Update(ctx, spot); err != nil {
				log.Printf("Warning: Failed to update source name on spot %s: %v", spot.ID, err)
				continue
			}
			updated++
		}
	}

	return updated, nil
}

func (s *ModerationService) referencedImages(ctx context.Context) (map[string]bool, error) {
	spots, err := s.spots.List(ctx, repositories.SpotFilter{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, spot := range spots {
		for _, ref := range spot.Images {
			referenced[ref] = true
		}
	}
	return referenced, nil
}
