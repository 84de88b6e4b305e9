// Package tmdb is a small client for The Movie Database v3 API.
//
// Only the two listing endpoints CineFind needs are covered: free-text
// search and the popularity-sorted discovery listing. Movie records are
// passed through exactly as the API returns them.
package tmdb

import "strings"

// Movie is a TMDB movie record as returned by the listing endpoints.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
}

// DefaultImageBaseURL serves w500 posters from the TMDB image CDN.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// PlaceholderPoster is the local asset shown when a movie has no poster.
const PlaceholderPoster = "no-poster.png"

// PosterURL resolves a partial poster path against the image CDN.
// Returns PlaceholderPoster when path is empty.
func PosterURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PlaceholderPoster
	}
	if base == "" {
		base = DefaultImageBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
