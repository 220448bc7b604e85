package handlers_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

var (
	stubUser      = entities.Actor{ID: "user-1", Name: "Ada", Role: entities.RoleUser}
	stubModerator = entities.Actor{ID: "mod-1", Name: "Mia", Role: entities.RoleModerator}
)

// stubSpotRepo is an in-memory SpotRepository for handler tests.
type stubSpotRepo struct {
	spots map[string]*entities.Spot
}

func newStubSpotRepo() *stubSpotRepo {
	return &stubSpotRepo{spots: make(map[string]*entities.Spot)}
}

func (r *stubSpotRepo) Create(ctx context.Context, spot *entities.Spot) error {
	clone := *spot
	r.spots[spot.ID] = &clone
	return nil
}

func (r *stubSpotRepo) GetByID(ctx context.Context, id string) (*entities.Spot, error) {
	spot, ok := r.spots[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("spot not found")
	}
	clone := *spot
	return &clone, nil
}

func (r *stubSpotRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Spot, error) {
	out := make([]*entities.Spot, 0, len(ids))
	for _, id := range ids {
		if spot, ok := r.spots[id]; ok {
			clone := *spot
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubSpotRepo) GetBySourceRef(ctx context.Context, sourceID, sourceRef string) (*entities.Spot, error) {
	for _, spot := range r.spots {
		if spot.SourceID == sourceID && spot.SourceRef == sourceRef {
			clone := *spot
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("spot not found")
}

func (r *stubSpotRepo) Update(ctx context.Context, spot *entities.Spot) error {
	if _, ok := r.spots[spot.ID]; !ok {
		return apperrors.NewNotFoundError("spot not found")
	}
	clone := *spot
	r.spots[spot.ID] = &clone
	return nil
}

func (r *stubSpotRepo) SoftDelete(ctx context.Context, id string) error {
	spot, ok := r.spots[id]
	if !ok {
		return apperrors.NewNotFoundError("spot not found")
	}
	now := time.Now()
	spot.DeletedAt = &now
	return nil
}

func (r *stubSpotRepo) HardDelete(ctx context.Context, id string) error {
	if _, ok := r.spots[id]; !ok {
		return apperrors.NewNotFoundError("spot not found")
	}
	delete(r.spots, id)
	return nil
}

func (r *stubSpotRepo) List(ctx context.Context, filter repositories.SpotFilter) ([]*entities.Spot, error) {
	out := make([]*entities.Spot, 0, len(r.spots))
	for _, spot := range r.spots {
		if spot.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		clone := *spot
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubSpotRepo) ListInBounds(ctx context.Context, bounds repositories.Bounds, limit int) ([]*entities.Spot, error) {
	all, _ := r.List(ctx, repositories.SpotFilter{})
	out := make([]*entities.Spot, 0, len(all))
	for _, spot := range all {
		if bounds.Contains(spot.EffectiveLocation()) {
			out = append(out, spot)
		}
	}
	return out, nil
}

// stubRatingRepo keeps ratings keyed by spot and user and mirrors the
// summary back onto the spot row like the real adapter does.
type stubRatingRepo struct {
	spots   *stubSpotRepo
	ratings map[string]*entities.Rating
}

func newStubRatingRepo(spots *stubSpotRepo) *stubRatingRepo {
	return &stubRatingRepo{spots: spots, ratings: make(map[string]*entities.Rating)}
}

func (r *stubRatingRepo) Upsert(ctx context.Context, rating *entities.Rating, summary *entities.RatingSummary) error {
	clone := *rating
	r.ratings[rating.SpotID+"|"+rating.UserID] = &clone
	if spot, ok := r.spots.spots[summary.SpotID]; ok {
		spot.RatingAvg = summary.Average
		spot.RatingCount = summary.Count
		spot.RankScore = summary.RankScore
	}
	return nil
}

func (r *stubRatingRepo) GetBySpotAndUser(ctx context.Context, spotID, userID string) (*entities.Rating, error) {
	rating, ok := r.ratings[spotID+"|"+userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("rating not found")
	}
	clone := *rating
	return &clone, nil
}

func (r *stubRatingRepo) ListBySpot(ctx context.Context, spotID string) ([]*entities.Rating, error) {
	out := []*entities.Rating{}
	for _, rating := range r.ratings {
		if rating.SpotID == spotID {
			clone := *rating
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubRatingRepo) DeleteBySpot(ctx context.Context, spotID string) error {
	for key, rating := range r.ratings {
		if rating.SpotID == spotID {
			delete(r.ratings, key)
		}
	}
	return nil
}

type stubSearchRepo struct{}

func (s *stubSearchRepo) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Spot, error) {
	return []*entities.Spot{}, nil
}

func (s *stubSearchRepo) Index(ctx context.Context, spot *entities.Spot) error { return nil }

func (s *stubSearchRepo) Delete(ctx context.Context, id string) error { return nil }

type stubGeocoder struct {
	err error
}

func (g *stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &providers.GeocodedAddress{
		FormattedAddress: "Museumplein, Amsterdam",
		City:             "Amsterdam",
		CountryCode:      "NL",
	}, nil
}

type stubEventBus struct {
	published []*entities.SpotEvent
}

func (b *stubEventBus) Publish(ctx context.Context, channel string, event *entities.SpotEvent) error {
	b.published = append(b.published, event)
	return nil
}

func (b *stubEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SpotEvent, error) {
	ch := make(chan *entities.SpotEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (b *stubEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *stubEventBus) Close() error { return nil }

type stubImageStore struct {
	blobs map[string][]byte
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{blobs: make(map[string][]byte)}
}

func (s *stubImageStore) Save(ctx context.Context, data io.Reader, contentType string) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		return "", apperrors.NewValidationError("unsupported image content type: " + contentType)
	}
	blob, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	ref := uuid.New().String() + ".jpg"
	s.blobs[ref] = blob
	return ref, nil
}

func (s *stubImageStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	blob, ok := s.blobs[ref]
	if !ok {
		return nil, apperrors.NewNotFoundError("image not found")
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

func (s *stubImageStore) Delete(ctx context.Context, ref string) error {
	delete(s.blobs, ref)
	return nil
}

func (s *stubImageStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, ok := s.blobs[ref]
	return ok, nil
}

func (s *stubImageStore) List(ctx context.Context) ([]string, error) {
	refs := make([]string, 0, len(s.blobs))
	for ref := range s.blobs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

func (s *stubImageStore) URL(ref string) string {
	return "http://localhost:8080/api/images/" + ref
}
