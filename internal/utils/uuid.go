package utils

import "github.com/google/uuid"

// IDGenerator produces opaque unique identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator issues time-ordered UUID v7 identifiers, falling back to a
// random v4 if the v7 clock source fails.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	return NewID()
}

// NewID returns a new UUID v7 string.
func NewID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
