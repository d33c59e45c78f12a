package models

import "github.com/google/uuid"

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// UniqueIDs removes duplicates and empty values, keeping first occurrences.
func UniqueIDs(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
