package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"locator-api/internal/models"
	"locator-api/internal/provider"
	"locator-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNearbySearcher is a mock implementation of the NearbySearcher interface
type MockNearbySearcher struct {
	mock.Mock
}

func (m *MockNearbySearcher) FindNearby(ctx context.Context, p service.NearbyParams) ([]models.NearbyResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NearbyResult), args.Error(1)
}

func TestNearbyHandler_Nearby_ParameterValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
	}{
		{name: "no origin or address", query: ""},
		{name: "unparseable radius", query: "address=123+Main+St&radius=wide"},
		{name: "unknown units", query: "address=123+Main+St&units=leagues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewNearbyHandler(new(MockOriginResolver), new(MockNearbySearcher), 30, "miles")

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/nearby?"+tt.query, nil)

			handler.Nearby(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestNearbyHandler_Nearby_FromMarkerOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	origin := models.Coordinate{Lat: 44.9778, Lng: -93.265}
	found := []models.NearbyResult{
		{Marker: models.Marker{ID: "2", Title: "Nearby Spot"}, Distance: 1.2},
	}

	mockResolver := new(MockOriginResolver)
	mockResolver.On("ResolveOrigin", mock.Anything, service.OriginParams{
		MarkerID: "1",
		EndUser:  false,
	}).Return(origin, provider.Success, nil)

	mockSearcher := new(MockNearbySearcher)
	mockSearcher.On("FindNearby", mock.Anything, service.NearbyParams{
		Origin:    origin,
		Radius:    30,
		Unit:      "miles",
		ExcludeID: "1",
	}).Return(found, nil)

	handler := NewNearbyHandler(mockResolver, mockSearcher, 30, "miles")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/nearby?origin=1", nil)

	handler.Nearby(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Origin  models.Coordinate     `json:"origin"`
		Radius  float64               `json:"radius"`
		Units   string                `json:"units"`
		Results []models.NearbyResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, origin, body.Origin)
	assert.Equal(t, 30.0, body.Radius)
	assert.Equal(t, "miles", body.Units)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "2", body.Results[0].ID)

	mockResolver.AssertExpectations(t)
	mockSearcher.AssertExpectations(t)
}

func TestNearbyHandler_Nearby_FromAddressWithOverrides(t *testing.T) {
	gin.SetMode(gin.TestMode)

	origin := models.Coordinate{Lat: 44.9778, Lng: -93.265}

	mockResolver := new(MockOriginResolver)
	mockResolver.On("ResolveOrigin", mock.Anything, service.OriginParams{
		UserID:  7,
		Address: "123 Main St",
		EndUser: true,
	}).Return(origin, provider.Success, nil)

	mockSearcher := new(MockNearbySearcher)
	mockSearcher.On("FindNearby", mock.Anything, service.NearbyParams{
		Origin:   origin,
		Radius:   5,
		Unit:     "km",
		Keywords: "cafe",
		UserID:   7,
	}).Return([]models.NearbyResult{}, nil)

	handler := NewNearbyHandler(mockResolver, mockSearcher, 30, "miles")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/nearby?address=123+Main+St&radius=5&units=km&keywords=cafe", nil)
	c.Request.Header.Set("X-User-ID", "7")

	handler.Nearby(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockResolver.AssertExpectations(t)
	mockSearcher.AssertExpectations(t)
}

func TestNearbyHandler_Nearby_UnresolvedOriginIsEmptyResult(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockResolver := new(MockOriginResolver)
	mockResolver.On("ResolveOrigin", mock.Anything, mock.Anything).
		Return(models.Coordinate{}, provider.NotFound, nil)

	mockSearcher := new(MockNearbySearcher)
	mockSearcher.On("FindNearby", mock.Anything, mock.Anything).
		Return([]models.NearbyResult{}, nil)

	handler := NewNearbyHandler(mockResolver, mockSearcher, 30, "miles")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/nearby?address=nowhere", nil)

	handler.Nearby(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Results []models.NearbyResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Results)
}

func TestNearbyHandler_Nearby_Errors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		resolveErr     error
		searchErr      error
		expectedStatus int
	}{
		{
			name:           "speed limited",
			resolveErr:     service.ErrSpeedLimit,
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name:           "resolver failure",
			resolveErr:     assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "search failure",
			searchErr:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockResolver := new(MockOriginResolver)
			mockResolver.On("ResolveOrigin", mock.Anything, mock.Anything).
				Return(models.Coordinate{Lat: 1, Lng: 1}, provider.Success, tt.resolveErr)

			mockSearcher := new(MockNearbySearcher)
			mockSearcher.On("FindNearby", mock.Anything, mock.Anything).
				Return(nil, tt.searchErr)

			handler := NewNearbyHandler(mockResolver, mockSearcher, 30, "miles")

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/nearby?address=123+Main+St", nil)

			// Execute
			handler.Nearby(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
