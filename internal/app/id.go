package app

import "github.com/google/uuid"

// generateID returns a random UUIDv4 string used for every aggregate id.
func generateID() string {
	return uuid.NewString()
}
