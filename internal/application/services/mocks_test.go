package services_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/repositories"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

func spotFilterAll() repositories.SpotFilter {
	return repositories.SpotFilter{IncludeDeleted: true}
}

// mockSpotRepo is an in-memory SpotRepository preserving insertion order
type mockSpotRepo struct {
	mu    sync.Mutex
	order []string
	spots map[string]*entities.Spot
}

func newMockSpotRepo() *mockSpotRepo {
	return &mockSpotRepo{spots: make(map[string]*entities.Spot)}
}

func (m *mockSpotRepo) Create(ctx context.Context, spot *entities.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *spot
	m.spots[spot.ID] = &clone
	m.order = append(m.order, spot.ID)
	return nil
}

func (m *mockSpotRepo) GetByID(ctx context.Context, id string) (*entities.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spot, ok := m.spots[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("spot " + id + " not found")
	}
	clone := *spot
	return &clone, nil
}

func (m *mockSpotRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Spot, error) {
	result := []*entities.Spot{}
	for _, id := range ids {
		if spot, err := m.GetByID(ctx, id); err == nil {
			result = append(result, spot)
		}
	}
	return result, nil
}

func (m *mockSpotRepo) GetBySourceRef(ctx context.Context, sourceID, sourceRef string) (*entities.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		spot := m.spots[id]
		if spot.SourceID == sourceID && spot.SourceRef == sourceRef {
			clone := *spot
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no spot for ref " + sourceRef)
}

func (m *mockSpotRepo) Update(ctx context.Context, spot *entities.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spots[spot.ID]; !ok {
		return apperrors.NewNotFoundError("spot " + spot.ID + " not found")
	}
	clone := *spot
	m.spots[spot.ID] = &clone
	return nil
}

func (m *mockSpotRepo) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spot, ok := m.spots[id]
	if !ok {
		return apperrors.NewNotFoundError("spot " + id + " not found")
	}
	now := time.Now()
	spot.DeletedAt = &now
	return nil
}

func (m *mockSpotRepo) HardDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spots[id]; !ok {
		return apperrors.NewNotFoundError("spot " + id + " not found")
	}
	delete(m.spots, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockSpotRepo) List(ctx context.Context, filter repositories.SpotFilter) ([]*entities.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*entities.Spot{}
	for _, id := range m.order {
		spot := m.spots[id]
		if spot.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.CreatedBy != "" && spot.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.SourceID != "" && spot.SourceID != filter.SourceID {
			continue
		}
		clone := *spot
		result = append(result, &clone)
	}
	return result, nil
}

func (m *mockSpotRepo) ListInBounds(ctx context.Context, bounds repositories.Bounds, limit int) ([]*entities.Spot, error) {
	all, _ := m.List(ctx, repositories.SpotFilter{})
	result := []*entities.Spot{}
	for _, spot := range all {
		if bounds.Contains(spot.Location) {
			result = append(result, spot)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// mockRatingRepo is an in-memory RatingRepository
type mockRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]*entities.Rating // keyed by spotID+userID
	spots   *mockSpotRepo               // summary write-back target
}

func newMockRatingRepo(spots *mockSpotRepo) *mockRatingRepo {
	return &mockRatingRepo{ratings: make(map[string]*entities.Rating), spots: spots}
}

func ratingKey(spotID, userID string) string { return spotID + "|" + userID }

func (m *mockRatingRepo) Upsert(ctx context.Context, rating *entities.Rating, summary *entities.RatingSummary) error {
	m.mu.Lock()
	clone := *rating
	m.ratings[ratingKey(rating.SpotID, rating.UserID)] = &clone
	m.mu.Unlock()

	if m.spots != nil {
		if spot, err := m.spots.GetByID(ctx, rating.SpotID); err == nil {
			spot.RatingAvg = summary.Average
			spot.RatingCount = summary.Count
			spot.RankScore = summary.RankScore
			return m.spots.Update(ctx, spot)
		}
	}
	return nil
}

func (m *mockRatingRepo) GetBySpotAndUser(ctx context.Context, spotID, userID string) (*entities.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rating, ok := m.ratings[ratingKey(spotID, userID)]
	if !ok {
		return nil, apperrors.NewNotFoundError("no rating")
	}
	clone := *rating
	return &clone, nil
}

func (m *mockRatingRepo) ListBySpot(ctx context.Context, spotID string) ([]*entities.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*entities.Rating{}
	for _, rating := range m.ratings {
		if rating.SpotID == spotID {
			clone := *rating
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (m *mockRatingRepo) DeleteBySpot(ctx context.Context, spotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rating := range m.ratings {
		if rating.SpotID == spotID {
			delete(m.ratings, key)
		}
	}
	return nil
}

// mockSearchRepo records index/delete calls
type mockSearchRepo struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
	results []*entities.Spot
}

func (m *mockSearchRepo) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Spot, error) {
	return m.results, nil
}

func (m *mockSearchRepo) Index(ctx context.Context, spot *entities.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, spot.ID)
	return nil
}

func (m *mockSearchRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

// mockSyncSourceRepo is an in-memory SyncSourceRepository
type mockSyncSourceRepo struct {
	mu      sync.Mutex
	sources map[string]*entities.SyncSource
	runs    map[string]*entities.SyncRun
}

func newMockSyncSourceRepo() *mockSyncSourceRepo {
	return &mockSyncSourceRepo{
		sources: make(map[string]*entities.SyncSource),
		runs:    make(map[string]*entities.SyncRun),
	}
}

func (m *mockSyncSourceRepo) Create(ctx context.Context, source *entities.SyncSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *source
	m.sources[source.ID] = &clone
	return nil
}

func (m *mockSyncSourceRepo) GetByID(ctx context.Context, id string) (*entities.SyncSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("sync source " + id + " not found")
	}
	clone := *source
	return &clone, nil
}

func (m *mockSyncSourceRepo) List(ctx context.Context) ([]*entities.SyncSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*entities.SyncSource{}
	for _, source := range m.sources {
		clone := *source
		result = append(result, &clone)
	}
	return result, nil
}

func (m *mockSyncSourceRepo) Update(ctx context.Context, source *entities.SyncSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[source.ID]; !ok {
		return apperrors.NewNotFoundError("sync source " + source.ID + " not found")
	}
	clone := *source
	m.sources[source.ID] = &clone
	return nil
}

func (m *mockSyncSourceRepo) RecordRun(ctx context.Context, run *entities.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.SourceID] = &clone
	return nil
}

func (m *mockSyncSourceRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	delete(m.runs, id)
	return nil
}

// mockGeocoder returns a fixed address, counting lookups. onCall, when set,
// runs during the lookup so tests can interleave a concurrent edit.
type mockGeocoder struct {
	mu      sync.Mutex
	calls   int
	address providers.GeocodedAddress
	err     error
	onCall  func()
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	m.mu.Lock()
	m.calls++
	hook := m.onCall
	m.onCall = nil
	err := m.err
	clone := m.address
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

// mockEventBus records published events per channel
type publishedEvent struct {
	channel string
	event   *entities.SpotEvent
}

type mockEventBus struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (m *mockEventBus) Publish(ctx context.Context, channel string, event *entities.SpotEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{channel: channel, event: event})
	return nil
}

func (m *mockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SpotEvent, error) {
	ch := make(chan *entities.SpotEvent)
	close(ch)
	return ch, nil
}

func (m *mockEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }
func (m *mockEventBus) Close() error                                          { return nil }

// eventTypes returns the types published on the global updates channel
func (m *mockEventBus) eventTypes() []entities.SpotEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]entities.SpotEventType, 0, len(m.published))
	for _, p := range m.published {
		if p.channel == providers.EventChannelSpotUpdates {
			types = append(types, p.event.EventType)
		}
	}
	return types
}

// eventsOn returns the events published on a specific channel
func (m *mockEventBus) eventsOn(channel string) []*entities.SpotEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*entities.SpotEvent
	for _, p := range m.published {
		if p.channel == channel {
			events = append(events, p.event)
		}
	}
	return events
}

// mockImageStore is an in-memory ImageStore
type mockImageStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{blobs: make(map[string][]byte)}
}

func (m *mockImageStore) Save(ctx context.Context, data io.Reader, contentType string) (string, error) {
	payload, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	ref := uuid.New().String() + ".jpg"
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = payload
	return ref, nil
}

func (m *mockImageStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.blobs[ref]
	if !ok {
		return nil, apperrors.NewNotFoundError("image " + ref + " not found")
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (m *mockImageStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[ref]; !ok {
		return apperrors.NewNotFoundError("image " + ref + " not found")
	}
	delete(m.blobs, ref)
	return nil
}

func (m *mockImageStore) Exists(ctx context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[ref]
	return ok, nil
}

func (m *mockImageStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, len(m.blobs))
	for ref := range m.blobs {
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *mockImageStore) URL(ref string) string {
	return fmt.Sprintf("http://images.test/%s", ref)
}
