package library

// Library is one place returned by the nearby search, enriched with place
// details where the details lookup succeeded.
type Library struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	OpenNow   *bool   `json:"openNow,omitempty"`
}

// SearchResult carries the geocoded center alongside the libraries found
// within the search radius.
type SearchResult struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Libraries []Library `json:"libraries"`
}
