package models

import "fmt"

// ContentType distinguishes the two kinds of VOD content a subscription exposes.
type ContentType string

const (
	Movies ContentType = "movies"
	Series ContentType = "series"
)

// ContentTypes lists every content type in display order.
var ContentTypes = []ContentType{Movies, Series}

// ParseContentType accepts the plural wire form and the singular form used
// by the category tables.
func ParseContentType(s string) (ContentType, error) {
	switch s {
	case "movies", "movie":
		return Movies, nil
	case "series":
		return Series, nil
	}
	return "", fmt.Errorf("invalid content type %q", s)
}

// CategoryType is the value stored in the categories tables ("movie"/"series").
func (c ContentType) CategoryType() string {
	if c == Movies {
		return "movie"
	}
	return string(c)
}

// Label is a capitalized name for messages, e.g. "Movie" or "Series".
func (c ContentType) Label() string {
	if c == Movies {
		return "Movie"
	}
	return "Series"
}
