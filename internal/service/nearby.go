package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"locator-api/internal/geo"
	"locator-api/internal/models"
)

// maxNearbyResults bounds the response size of a radius search.
const maxNearbyResults = 200

// NearbyRepository is the read-only view of the marker store the search
// needs: permission-filtered candidates and the user's saved origins.
type NearbyRepository interface {
	SearchCandidates(ctx context.Context, userID int) ([]models.Marker, error)
	UserOriginIDs(ctx context.Context, userID int) (map[string]bool, error)
}

// NearbyService ranks stored markers by great-circle distance from an origin.
type NearbyService struct {
	repo NearbyRepository
}

// NewNearbyService creates a new nearby search service.
func NewNearbyService(repo NearbyRepository) *NearbyService {
	return &NearbyService{repo: repo}
}

// NearbyParams describe one radius search.
type NearbyParams struct {
	Origin    models.Coordinate
	Radius    float64
	Unit      geo.Unit
	Keywords  string
	ExcludeID string
	UserID    int
}

// FindNearby returns the enabled, visible markers strictly inside the radius,
// ordered by ascending distance. An unset origin or a non-positive radius
// yields an empty result without touching the store. Results are capped and
// each one is flagged if the user has saved it as an origin.
func (s *NearbyService) FindNearby(ctx context.Context, p NearbyParams) ([]models.NearbyResult, error) {
	results := []models.NearbyResult{}
	if !p.Origin.IsSet() || p.Radius <= 0 {
		return results, nil
	}

	markers, err := s.repo.SearchCandidates(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load candidates: %w", err)
	}
	origins, err := s.repo.UserOriginIDs(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load user origins: %w", err)
	}

	tokens := strings.Fields(strings.ToLower(p.Keywords))

	for _, m := range markers {
		if m.ID == p.ExcludeID {
			continue
		}
		if !matchKeywords(m, tokens) {
			continue
		}
		dist := geo.Haversine(p.Origin, m.Coordinate, p.Unit)
		if dist >= p.Radius {
			continue
		}
		results = append(results, models.NearbyResult{
			Marker:       m,
			Distance:     dist,
			IsUserOrigin: origins[m.ID],
		})
	}

	// Distance ties fall back to ID so ordering is deterministic.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > maxNearbyResults {
		results = results[:maxNearbyResults]
	}
	return results, nil
}

// matchKeywords requires every token to appear, case-insensitively, in at
// least one of the marker's text fields. Tokens are ANDed; fields are ORed.
func matchKeywords(m models.Marker, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	fields := []string{
		strings.ToLower(m.Keywords),
		strings.ToLower(m.Title),
		strings.ToLower(m.Description),
		strings.ToLower(m.Address.Join(" ")),
		strings.ToLower(m.URL),
	}
	for _, tok := range tokens {
		found := false
		for _, f := range fields {
			if strings.Contains(f, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
