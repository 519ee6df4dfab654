// Package id provides ID generation for attention elements.
//
// Generated IDs are prefixed ULIDs ("el_01J...") so they sort by creation
// time and read well in logs. Callers may also bring their own IDs (scenario
// files, the HTTP API); those only have to pass Validate.
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ElementID identifies a registered attention element
type ElementID string

// Prefixes for generated IDs
const (
	ElementPrefix = "el"
	TracePrefix   = "tr"
	SpanPrefix    = "sp"
)

// MaxLength bounds caller-supplied IDs
const MaxLength = 128

var (
	ErrEmpty   = errors.New("id must not be empty")
	ErrTooLong = fmt.Errorf("id exceeds %d characters", MaxLength)
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use this for reproducible IDs.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewElementID generates a new element ID
func NewElementID() ElementID {
	return ElementID(Default().GenerateWithPrefix(ElementPrefix))
}

func (id ElementID) String() string { return string(id) }

// IsGenerated reports whether s has the shape of a generated element ID
func IsGenerated(s string) bool {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || prefix != ElementPrefix {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}

// Timestamp extracts the creation time from a generated element ID
func Timestamp(s string) (time.Time, error) {
	_, rest, ok := strings.Cut(s, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("not a generated id: %q", s)
	}
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return ulid.Time(parsed.Time()), nil
}

// Validate checks a caller-supplied ID. Letters, digits, '-', '_', '.' and ':'
// are accepted.
func Validate(s string) error {
	if s == "" {
		return ErrEmpty
	}
	if len(s) > MaxLength {
		return ErrTooLong
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return fmt.Errorf("id %q contains invalid character %q", s, r)
		}
	}
	return nil
}
