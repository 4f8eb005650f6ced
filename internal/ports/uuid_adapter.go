package ports

import "github.com/google/uuid"

// googleUUID adapts github.com/google/uuid to UUIDSource.
type googleUUID struct{}

// DefaultUUIDSource returns the UUIDSource used when a Client is constructed
// without an explicit override.
func DefaultUUIDSource() UUIDSource { return googleUUID{} }

func (googleUUID) NewV4() string {
	return uuid.New().String()
}
