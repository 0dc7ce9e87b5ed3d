package models

import (
	"strconv"
	"strings"
)

// ValidTMDBID returns the trimmed id when it denotes a real TMDB entry
// (a positive integer) and "" otherwise. Providers send "", "0", "null"
// and "None" for unknown ids.
func ValidTMDBID(raw string) string {
	id := strings.TrimSpace(raw)
	switch strings.ToLower(id) {
	case "", "0", "null", "none":
		return ""
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return ""
	}
	return id
}
