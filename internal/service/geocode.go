package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"locator-api/internal/models"
	"locator-api/internal/provider"
)

// ErrSpeedLimit is returned when an end-user free-text lookup arrives before
// the per-user interval has elapsed.
var ErrSpeedLimit = errors.New("service: speed limit exceeded")

// userOriginType marks user locations created from search input; they may be
// purged later, unlike profile locations.
const userOriginType = 1

// GeocodeRepository persists resolved user locations and resolves stored
// marker origins.
type GeocodeRepository interface {
	GetMarker(ctx context.Context, id string) (*models.Marker, error)
	FindUserLocation(ctx context.Context, userID int, address string) (*models.UserLocation, error)
	SaveUserLocation(ctx context.Context, loc *models.UserLocation) error
}

// ProviderSource resolves the configured default geocoder.
type ProviderSource interface {
	Geocoder() provider.GeoProvider
}

// SpeedLimiter gates end-user free-text lookups.
type SpeedLimiter interface {
	CheckLimit(key string) int
	RecordUse(key string)
}

// GeocodeService turns a stored marker ID or a free-text address into a
// search origin coordinate.
type GeocodeService struct {
	repo     GeocodeRepository
	registry ProviderSource
	limiter  SpeedLimiter
	autofill bool
}

// NewGeocodeService creates a new geocode service. autofill mirrors the
// configuration toggle; when false, free-text addresses are never geocoded.
func NewGeocodeService(repo GeocodeRepository, registry ProviderSource, limiter SpeedLimiter, autofill bool) *GeocodeService {
	return &GeocodeService{
		repo:     repo,
		registry: registry,
		limiter:  limiter,
		autofill: autofill,
	}
}

// OriginParams identify the origin of a search: a stored marker ID or a
// free-text address. EndUser marks input typed by a site visitor, which is
// the only path subject to the speed limit.
type OriginParams struct {
	UserID   int
	MarkerID string
	Address  string
	EndUser  bool
}

// ResolveOrigin resolves the search origin. Provider failures degrade to an
// unset coordinate with the outcome reported; the caller decides how to
// present it. ErrSpeedLimit is returned before any external call is made.
func (s *GeocodeService) ResolveOrigin(ctx context.Context, p OriginParams) (models.Coordinate, provider.Outcome, error) {
	if p.MarkerID != "" {
		marker, err := s.repo.GetMarker(ctx, p.MarkerID)
		if err != nil {
			return models.Coordinate{}, provider.TransientError, err
		}
		if marker == nil {
			return models.Coordinate{}, provider.NotFound, nil
		}
		return marker.Coordinate, provider.Success, nil
	}

	if p.Address == "" || !s.autofill {
		return models.Coordinate{}, provider.NotFound, nil
	}

	if p.EndUser {
		key := fmt.Sprintf("lookup:%d", p.UserID)
		if secs := s.limiter.CheckLimit(key); secs > 0 {
			return models.Coordinate{}, provider.NotFound, fmt.Errorf("%w: retry in %ds", ErrSpeedLimit, secs)
		}
	}

	// A previously saved lookup for the same address skips the provider
	// entirely. Records with unset coordinates are re-geocoded; they were
	// stored after an earlier failure.
	var saved *models.UserLocation
	if p.UserID > 0 {
		loc, err := s.repo.FindUserLocation(ctx, p.UserID, p.Address)
		if err != nil {
			return models.Coordinate{}, provider.TransientError, err
		}
		if loc != nil && loc.Coordinate.IsSet() {
			return loc.Coordinate, provider.Success, nil
		}
		saved = loc
	}

	coord, outcome := s.registry.Geocoder().Geocode(ctx, p.Address)
	switch outcome {
	case provider.Success:
		if p.EndUser {
			s.limiter.RecordUse(fmt.Sprintf("lookup:%d", p.UserID))
		}
		if p.UserID > 0 {
			s.persist(ctx, p.UserID, p.Address, coord, saved)
		}
	case provider.ConfigError:
		log.Error().Str("address", p.Address).Msg("geocoder is not configured")
	case provider.TransientError:
		log.Warn().Str("address", p.Address).Msg("geocode failed, will retry on next call")
	}
	return coord, outcome, nil
}

// persist stores the resolved coordinate for reuse. Failures are logged and
// swallowed; the lookup itself succeeded.
func (s *GeocodeService) persist(ctx context.Context, userID int, address string, coord models.Coordinate, saved *models.UserLocation) {
	loc := saved
	if loc == nil {
		loc = &models.UserLocation{
			UserID:   userID,
			Type:     userOriginType,
			Location: address,
		}
	}
	loc.Coordinate = coord
	if err := s.repo.SaveUserLocation(ctx, loc); err != nil {
		log.Warn().Err(err).Int("user_id", userID).Msg("failed to save user location")
	}
}
