package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"taskMateAPI/internal/apperr"
	"taskMateAPI/internal/library"
)

const (
	librarySearchRadiusMeters = 7000
	detailsFanOutLimit        = 5
)

// LibraryService finds public libraries near a postal code: geocode the
// code, run a nearby place search around the result, then fan out to place
// details for each hit.
type LibraryService struct {
	apiKey     string
	httpClient *http.Client

	geocodeURL string
	nearbyURL  string
	detailsURL string
}

func NewLibraryService(apiKey string) *LibraryService {
	return &LibraryService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		geocodeURL: "https://maps.googleapis.com/maps/api/geocode/json",
		nearbyURL:  "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
		detailsURL: "https://maps.googleapis.com/maps/api/place/details/json",
	}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		OpeningHours     *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"result"`
}

// SearchNearby returns libraries within the search radius of a postal code.
// A place whose details lookup fails is still returned, just without the
// enriched fields.
func (s *LibraryService) SearchNearby(ctx context.Context, postalCode string) (*library.SearchResult, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, fmt.Errorf("postal code is required: %w", apperr.ErrValidation)
	}

	var geocode geocodeResponse
	err := s.getJSON(ctx, s.geocodeURL, url.Values{
		"address":    {postalCode},
		"components": {"country:SG"},
		"key":        {s.apiKey},
	}, &geocode)
	if err != nil {
		return nil, err
	}

	if geocode.Status == "ZERO_RESULTS" || len(geocode.Results) == 0 {
		return nil, fmt.Errorf("no location found for postal code %q: %w", postalCode, apperr.ErrNotFound)
	}
	if geocode.Status != "OK" {
		log.Printf("SearchNearby: Geocode failed with status %s: %s", geocode.Status, geocode.ErrorMessage)
		return nil, fmt.Errorf("geocoding failed (%s): %w", geocode.Status, apperr.ErrRemoteUnavailable)
	}

	center := geocode.Results[0].Geometry.Location

	var nearby nearbyResponse
	err = s.getJSON(ctx, s.nearbyURL, url.Values{
		"location": {fmt.Sprintf("%f,%f", center.Lat, center.Lng)},
		"radius":   {fmt.Sprintf("%d", librarySearchRadiusMeters)},
		"type":     {"library"},
		"keyword":  {"NLB"},
		"key":      {s.apiKey},
	}, &nearby)
	if err != nil {
		return nil, err
	}

	if nearby.Status != "OK" && nearby.Status != "ZERO_RESULTS" {
		log.Printf("SearchNearby: Place search failed with status %s: %s", nearby.Status, nearby.ErrorMessage)
		return nil, fmt.Errorf("place search failed (%s): %w", nearby.Status, apperr.ErrRemoteUnavailable)
	}

	result := &library.SearchResult{
		Latitude:  center.Lat,
		Longitude: center.Lng,
		Libraries: make([]library.Library, len(nearby.Results)),
	}
	for i, place := range nearby.Results {
		result.Libraries[i] = library.Library{
			ID:        place.PlaceID,
			Name:      place.Name,
			Latitude:  place.Geometry.Location.Lat,
			Longitude: place.Geometry.Location.Lng,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailsFanOutLimit)
	for i := range result.Libraries {
		i := i
		g.Go(func() error {
			lib := &result.Libraries[i]

			var details detailsResponse
			err := s.getJSON(gctx, s.detailsURL, url.Values{
				"place_id": {lib.ID},
				"fields":   {"formatted_address,rating,opening_hours"},
				"key":      {s.apiKey},
			}, &details)
			if err != nil || details.Status != "OK" {
				log.Printf("SearchNearby: Details lookup failed for %s (status %s): %v", lib.ID, details.Status, err)
				return nil
			}

			lib.Address = details.Result.FormattedAddress
			lib.Rating = details.Result.Rating
			if details.Result.OpeningHours != nil {
				openNow := details.Result.OpeningHours.OpenNow
				lib.OpenNow = &openNow
			}
			return nil
		})
	}
	g.Wait()

	log.Printf("SearchNearby: Found %d libraries near %s", len(result.Libraries), postalCode)
	return result, nil
}

func (s *LibraryService) getJSON(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to maps API failed: %v: %w", err, apperr.ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps API returned HTTP %d: %w", resp.StatusCode, apperr.ErrRemoteUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed maps API response: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return nil
}
