package utils

import "github.com/google/uuid"

// IsSessionID reports whether s has the shape of a wizard session id.
func IsSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
