// Package uuid generates lead identifiers.
package uuid

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Generator issues UUIDv7 lead ids. The version 7 layout leads with the
// creation time, so ids sort in the order leads were captured.
type Generator struct {
	entropy io.Reader
}

// New returns a Generator reading randomness from crypto/rand.
func New() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewID implements crm.IDGenerator.
func (g *Generator) NewID() (string, error) {
	id, err := uuid.NewV7FromReader(g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate lead id: %w", err)
	}
	return id.String(), nil
}
