package service

import (
	"context"
	"fmt"
	"testing"

	"locator-api/internal/geo"
	"locator-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNearbyRepository is a mock implementation of the NearbyRepository interface
type MockNearbyRepository struct {
	mock.Mock
}

func (m *MockNearbyRepository) SearchCandidates(ctx context.Context, userID int) ([]models.Marker, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Marker), args.Error(1)
}

func (m *MockNearbyRepository) UserOriginIDs(ctx context.Context, userID int) (map[string]bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// testOrigin is roughly downtown Minneapolis. A latitude degree is about 69
// miles, so the offsets below put markers at useful test distances.
var testOrigin = models.Coordinate{Lat: 44.9778, Lng: -93.2650}

func markerAt(id string, latOffset float64) models.Marker {
	return models.Marker{
		ID:         id,
		Title:      "Marker " + id,
		Coordinate: models.Coordinate{Lat: testOrigin.Lat + latOffset, Lng: testOrigin.Lng},
		Enabled:    true,
	}
}

func TestNearbyService_FindNearby_EmptyWithoutOriginOrRadius(t *testing.T) {
	tests := []struct {
		name   string
		params NearbyParams
	}{
		{
			name:   "unset origin",
			params: NearbyParams{Radius: 10, Unit: geo.UnitMiles},
		},
		{
			name:   "zero radius",
			params: NearbyParams{Origin: testOrigin, Unit: geo.UnitMiles},
		},
		{
			name:   "negative radius",
			params: NearbyParams{Origin: testOrigin, Radius: -5, Unit: geo.UnitMiles},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockRepo := new(MockNearbyRepository)
			service := NewNearbyService(mockRepo)

			// Execute
			results, err := service.FindNearby(context.Background(), tt.params)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, []models.NearbyResult{}, results)
			mockRepo.AssertNotCalled(t, "SearchCandidates")
		})
	}
}

func TestNearbyService_FindNearby_FiltersByRadius(t *testing.T) {
	// ~3.5 miles and ~20.7 miles from the origin.
	near := markerAt("near", 0.05)
	far := markerAt("far", 0.30)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return([]models.Marker{far, near}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
	assert.InDelta(t, 3.45, results[0].Distance, 0.2)
	mockRepo.AssertExpectations(t)
}

func TestNearbyService_FindNearby_OrderedByDistance(t *testing.T) {
	a := markerAt("a", 0.08)
	b := markerAt("b", 0.02)
	c := markerAt("c", 0.05)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return([]models.Marker{a, b, c}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.Equal(t, "a", results[2].ID)
}

func TestNearbyService_FindNearby_DistanceTiesOrderedByID(t *testing.T) {
	// Same location, so identical distances.
	x := markerAt("x", 0.05)
	m := markerAt("m", 0.05)
	a := markerAt("a", 0.05)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return([]models.Marker{x, m, a}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "m", results[1].ID)
	assert.Equal(t, "x", results[2].ID)
}

func TestNearbyService_FindNearby_KeywordsAreConjunctive(t *testing.T) {
	cafe := markerAt("cafe", 0.01)
	cafe.Title = "Corner Cafe"
	cafe.Address.Street = "400 Main St"

	diner := markerAt("diner", 0.01)
	diner.Title = "Downtown Diner"
	diner.Address.Street = "500 Main St"

	bakery := markerAt("bakery", 0.01)
	bakery.Title = "Cafe Bakery"
	bakery.Address.Street = "12 Oak Ave"

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return([]models.Marker{cafe, diner, bakery}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	// Both tokens must match, each in any field.
	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin:   testOrigin,
		Radius:   10,
		Unit:     geo.UnitMiles,
		Keywords: "cafe main",
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cafe", results[0].ID)
}

func TestNearbyService_FindNearby_KeywordsMatchAnyField(t *testing.T) {
	byKeywords := markerAt("kw", 0.01)
	byKeywords.Keywords = "organic vegan"

	byDescription := markerAt("desc", 0.01)
	byDescription.Description = "The best vegan food in town"

	byURL := markerAt("url", 0.01)
	byURL.URL = "https://vegan.example.com"

	miss := markerAt("miss", 0.01)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).
		Return([]models.Marker{byKeywords, byDescription, byURL, miss}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin:   testOrigin,
		Radius:   10,
		Unit:     geo.UnitMiles,
		Keywords: "VEGAN",
	})

	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotEqual(t, "miss", r.ID)
	}
}

func TestNearbyService_FindNearby_ExcludesOriginMarker(t *testing.T) {
	origin := markerAt("origin-marker", 0)
	other := markerAt("other", 0.01)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return([]models.Marker{origin, other}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin:    testOrigin,
		Radius:    10,
		Unit:      geo.UnitMiles,
		ExcludeID: "origin-marker",
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].ID)
}

func TestNearbyService_FindNearby_FlagsUserOrigins(t *testing.T) {
	a := markerAt("a", 0.01)
	b := markerAt("b", 0.02)

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 7).Return([]models.Marker{a, b}, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 7).Return(map[string]bool{"b": true}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
		UserID: 7,
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].IsUserOrigin)
	assert.True(t, results[1].IsUserOrigin)
}

func TestNearbyService_FindNearby_CapsResults(t *testing.T) {
	markers := make([]models.Marker, 0, 250)
	for i := 0; i < 250; i++ {
		markers = append(markers, markerAt(fmt.Sprintf("m%03d", i), 0.01))
	}

	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return(markers, nil)
	mockRepo.On("UserOriginIDs", mock.Anything, 0).Return(map[string]bool{}, nil)

	service := NewNearbyService(mockRepo)

	results, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
	})

	require.NoError(t, err)
	assert.Len(t, results, maxNearbyResults)
}

func TestNearbyService_FindNearby_RepositoryError(t *testing.T) {
	mockRepo := new(MockNearbyRepository)
	mockRepo.On("SearchCandidates", mock.Anything, 0).Return(nil, assert.AnError)

	service := NewNearbyService(mockRepo)

	_, err := service.FindNearby(context.Background(), NearbyParams{
		Origin: testOrigin,
		Radius: 10,
		Unit:   geo.UnitMiles,
	})

	assert.Error(t, err)
}
