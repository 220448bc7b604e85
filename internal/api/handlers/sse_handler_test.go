package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wardweistra/parkour-spot-api/internal/api/handlers"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.SpotEvent
	published   []*entities.SpotEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.SpotEvent),
		published:   make([]*entities.SpotEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SpotEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.SpotEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SpotEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.SpotEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.SpotEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) PublishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.published)
}

func TestSSEHandler_StreamSpotUpdates(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := handlers.NewSSEHandler(eventBus)

	t.Run("should establish SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/spots/spot_001", nil)
		req.SetPathValue("id", "spot_001")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamSpotUpdates(w, req)
			close(done)
		}()

		// Wait a bit for connection to establish
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
		if result.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control no-cache, got %s", result.Header.Get("Cache-Control"))
		}
	})

	t.Run("should receive spot events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/spots/spot_002", nil)
		req.SetPathValue("id", "spot_002")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamSpotUpdates(w, req)
			close(done)
		}()

		// Wait for connection
		time.Sleep(100 * time.Millisecond)

		// Publish event
		event := entities.NewSpotEvent(
			"spot_002",
			entities.SpotEventTypeRated,
			entities.Location{Latitude: 48.8566, Longitude: 2.3522},
			map[string]interface{}{"rating_avg": 4.5},
		)

		channel := providers.GetSpotChannel("spot_002")
		eventBus.Publish(context.Background(), channel, event)

		// Wait for event to be sent
		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		if eventBus.PublishedCount() == 0 {
			t.Error("Expected event to be published")
		}
		if !strings.Contains(w.Body.String(), "spot_rated") {
			t.Error("Expected stream body to carry the rating event")
		}
	})

	t.Run("should return error for missing spot ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/spots/", nil)
		w := httptest.NewRecorder()

		handler.StreamSpotUpdates(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", result.StatusCode)
		}
	})
}

func TestSSEHandler_StreamViewportUpdates(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := handlers.NewSSEHandler(eventBus)

	t.Run("should establish viewport SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/spots?south=48&west=2&north=49&east=3", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamViewportUpdates(w, req)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
	})

	t.Run("should filter events by viewport", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/spots?south=48&west=2&north=49&east=3", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamViewportUpdates(w, req)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)

		inside := entities.NewSpotEvent(
			"spot_paris",
			entities.SpotEventTypeCreated,
			entities.Location{Latitude: 48.8566, Longitude: 2.3522},
			nil,
		)
		outside := entities.NewSpotEvent(
			"spot_sydney",
			entities.SpotEventTypeCreated,
			entities.Location{Latitude: -33.8688, Longitude: 151.2093},
			nil,
		)
		eventBus.Publish(context.Background(), providers.EventChannelSpotUpdates, inside)
		eventBus.Publish(context.Background(), providers.EventChannelSpotUpdates, outside)

		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !strings.Contains(body, "spot_paris") {
			t.Error("Expected event inside viewport to be forwarded")
		}
		if strings.Contains(body, "spot_sydney") {
			t.Error("Expected event outside viewport to be filtered")
		}
	})

	t.Run("should reject incomplete bounds", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/spots?south=48&west=2", nil)
		w := httptest.NewRecorder()

		handler.StreamViewportUpdates(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", result.StatusCode)
		}
	})
}
