package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardweistra/parkour-spot-api/internal/application/services"
	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
	"github.com/wardweistra/parkour-spot-api/internal/domain/providers"
	apperrors "github.com/wardweistra/parkour-spot-api/pkg/errors"
)

var (
	testUser      = entities.Actor{ID: "user-1", Name: "Alex", Role: entities.RoleUser}
	testModerator = entities.Actor{ID: "mod-1", Name: "Sam", Role: entities.RoleModerator}
)

func validSpot() *entities.Spot {
	return &entities.Spot{
		Name:        "Flevopark Bars",
		Description: "Pull-up bars near the east entrance",
		Location:    entities.Location{Latitude: 52.36, Longitude: 4.948},
		Images:      []string{"img-1.jpg"},
	}
}

func newSpotService(repo *mockSpotRepo) (*services.SpotService, *mockSearchRepo, *mockEventBus) {
	search := &mockSearchRepo{}
	bus := &mockEventBus{}
	ratings := newMockRatingRepo(repo)
	svc := services.NewSpotService(repo, ratings, search, &mockGeocoder{
		address: providers.GeocodedAddress{FormattedAddress: "Flevopark, Amsterdam", City: "Amsterdam", CountryCode: "NL"},
	}, bus)
	return svc, search, bus
}

func TestSpotService_Create(t *testing.T) {
	repo := newMockSpotRepo()
	svc, search, bus := newSpotService(repo)

	spot := validSpot()
	err := svc.Create(context.Background(), spot, testUser)
	require.NoError(t, err)

	assert.NotEmpty(t, spot.ID)
	assert.Equal(t, "user-1", spot.CreatedBy)
	assert.Equal(t, "Alex", spot.CreatedByName)
	assert.Equal(t, "Amsterdam", spot.City)
	assert.Equal(t, "NL", spot.CountryCode)
	assert.Zero(t, spot.RatingCount)

	stored, err := repo.GetByID(context.Background(), spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flevopark Bars", stored.Name)

	assert.Equal(t, []string{spot.ID}, search.indexed)
	assert.Equal(t, []entities.SpotEventType{entities.SpotEventTypeCreated}, bus.eventTypes())

	// The spot's own channel gets the same event, so per-spot streams work
	perSpot := bus.eventsOn(providers.GetSpotChannel(spot.ID))
	require.Len(t, perSpot, 1)
	assert.Equal(t, entities.SpotEventTypeCreated, perSpot[0].EventType)
}

func TestSpotService_Create_DescriptionLength(t *testing.T) {
	repo := newMockSpotRepo()
	svc, _, _ := newSpotService(repo)

	// 9 characters trimmed is rejected, 10 is accepted
	tooShort := validSpot()
	tooShort.Description = "  nine ch.  "
	err := svc.Create(context.Background(), tooShort, testUser)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, "description", appErr.Field)

	justLong := validSpot()
	justLong.Description = "ten chars."
	assert.NoError(t, svc.Create(context.Background(), justLong, testUser))
}

func TestSpotService_Create_ImageRequirementByRole(t *testing.T) {
	repo := newMockSpotRepo()
	svc, _, _ := newSpotService(repo)

	noImages := validSpot()
	noImages.Images = nil
	err := svc.Create(context.Background(), noImages, testUser)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, "images", appErr.Field)

	modSpot := validSpot()
	modSpot.Images = nil
	assert.NoError(t, svc.Create(context.Background(), modSpot, testModerator))
}

func TestSpotService_Create_InvalidLocation(t *testing.T) {
	repo := newMockSpotRepo()
	svc, _, _ := newSpotService(repo)

	spot := validSpot()
	spot.Location = entities.Location{Latitude: 95, Longitude: 200}
	err := svc.Create(context.Background(), spot, testUser)
	require.Error(t, err)
}

func TestSpotService_Create_UnknownVocabulary(t *testing.T) {
	repo := newMockSpotRepo()
	svc, _, _ := newSpotService(repo)

	spot := validSpot()
	spot.Access = entities.AccessLevel("secret")
	assert.Error(t, svc.Create(context.Background(), spot, testUser))

	spot = validSpot()
	spot.Features = []string{"antigravity"}
	assert.Error(t, svc.Create(context.Background(), spot, testUser))

	spot = validSpot()
	spot.Facilities = map[string]entities.FacilityState{"lighting": "maybe"}
	assert.Error(t, svc.Create(context.Background(), spot, testUser))
}

func TestSpotService_FacilityCycling(t *testing.T) {
	spot := validSpot()

	spot.SetFacility("lighting", entities.FacilityYes)
	assert.Equal(t, entities.FacilityYes, spot.Facilities["lighting"])

	spot.SetFacility("lighting", entities.FacilityNo)
	assert.Equal(t, entities.FacilityNo, spot.Facilities["lighting"])

	spot.SetFacility("lighting", "")
	_, present := spot.Facilities["lighting"]
	assert.False(t, present, "cleared facility must be absent, not null-valued")
}

func TestSpotService_Update_OwnershipAndModerator(t *testing.T) {
	repo := newMockSpotRepo()
	svc, _, _ := newSpotService(repo)

	spot := validSpot()
	require.NoError(t, svc.Create(context.Background(), spot, testUser))

	edit := validSpot()
	edit.ID = spot.ID
	edit.Name = "Renamed Bars"

	stranger := entities.Actor{ID: "user-2", Role: entities.RoleUser}
	err := svc.Update(context.Background(), edit, stranger)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeForbidden, appErr.Type)

	require.NoError(t, svc.Update(context.Background(), edit, testUser))
	stored, err := repo.GetByID(context.Background(), spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Bars", stored.Name)
	// Provenance carried over from the original record
	assert.Equal(t, "user-1", stored.CreatedBy)

	// Moderator edit without description or images
	modEdit := &entities.Spot{
		ID:       spot.ID,
		Name:     "Moderated Name",
		Location: spot.Location,
	}
	assert.NoError(t, svc.Update(context.Background(), modEdit, testModerator))
}

func TestSpotService_Delete(t *testing.T) {
	repo := newMockSpotRepo()
	svc, search, _ := newSpotService(repo)

	spot := validSpot()
	require.NoError(t, svc.Create(context.Background(), spot, testUser))

	err := svc.Delete(context.Background(), spot.ID, false, testUser)
	require.Error(t, err, "non-moderators cannot delete")

	require.NoError(t, svc.Delete(context.Background(), spot.ID, false, testModerator))
	assert.Equal(t, []string{spot.ID}, search.deleted)

	// Soft-deleted: hidden from users, visible to moderators
	_, err = svc.GetByID(context.Background(), spot.ID, testUser)
	assert.Error(t, err)
	deleted, err := svc.GetByID(context.Background(), spot.ID, testModerator)
	require.NoError(t, err)
	assert.NotNil(t, deleted.DeletedAt)

	// Hard delete removes the row
	require.NoError(t, svc.Delete(context.Background(), spot.ID, true, testModerator))
	_, err = repo.GetByID(context.Background(), spot.ID)
	assert.Error(t, err)
}

func TestSpotService_RefreshAddress_DiscardsStaleResult(t *testing.T) {
	repo := newMockSpotRepo()
	geocoder := &mockGeocoder{address: providers.GeocodedAddress{FormattedAddress: "Stale Address", City: "Stale"}}
	svc := services.NewSpotService(repo, newMockRatingRepo(repo), nil, geocoder, nil)

	spot := validSpot()
	require.NoError(t, svc.Create(context.Background(), spot, testUser))

	// Edit the record while the geocode lookup is in flight
	geocoder.onCall = func() {
		stored, err := repo.GetByID(context.Background(), spot.ID)
		require.NoError(t, err)
		stored.UpdatedAt = stored.UpdatedAt.Add(1)
		stored.City = "Fresh"
		require.NoError(t, repo.Update(context.Background(), stored))
	}

	require.NoError(t, svc.RefreshAddress(context.Background(), spot.ID))

	after, err := repo.GetByID(context.Background(), spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", after.City, "stale geocode result must not overwrite the newer edit")
}

func TestSpotService_RefreshAddress_AppliesResult(t *testing.T) {
	repo := newMockSpotRepo()
	geocoder := &mockGeocoder{address: providers.GeocodedAddress{FormattedAddress: "Flevopark, Amsterdam", City: "Amsterdam", CountryCode: "NL"}}
	svc := services.NewSpotService(repo, newMockRatingRepo(repo), nil, geocoder, nil)

	spot := validSpot()
	require.NoError(t, svc.Create(context.Background(), spot, testUser))

	require.NoError(t, svc.RefreshAddress(context.Background(), spot.ID))

	after, err := repo.GetByID(context.Background(), spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amsterdam", after.City)
	assert.Equal(t, "NL", after.CountryCode)
}
