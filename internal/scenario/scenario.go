// Package scenario loads attention scenarios from YAML, TOML or JSON files,
// runs them through a fresh store and checks the declared expectations.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/inspect"
	"github.com/GriffinCanCode/AgentOS/attention/internal/shared/id"
)

// Format is a scenario file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

var (
	// ErrUnsupportedFormat is returned for unknown file extensions
	ErrUnsupportedFormat = errors.New("unsupported scenario format")

	// ErrNoMatch is returned when a pattern matches no files
	ErrNoMatch = errors.New("no scenario files match")
)

// File is a decoded scenario
type File struct {
	Name     string                  `json:"name" yaml:"name" toml:"name"`
	Path     string                  `json:"-" yaml:"-" toml:"-"`
	Capacity attention.Needs         `json:"capacity" yaml:"capacity" toml:"capacity"`
	Context  attention.ContextUpdate `json:"context" yaml:"context" toml:"context"`
	Elements []Element               `json:"elements" yaml:"elements" toml:"elements"`
	Expect   *Expect                 `json:"expect,omitempty" yaml:"expect,omitempty" toml:"expect,omitempty"`
}

// Element declares one widget
type Element struct {
	ID       string                  `json:"id" yaml:"id" toml:"id"`
	Kind     attention.Kind          `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Urgency  attention.Urgency       `json:"urgency,omitempty" yaml:"urgency,omitempty" toml:"urgency,omitempty"`
	Weight   *float64                `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty"`
	Priority *float64                `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	CanDefer *bool                   `json:"can-defer,omitempty" yaml:"can-defer,omitempty" toml:"can-defer,omitempty"`
	Needs    *attention.PartialNeeds `json:"needs,omitempty" yaml:"needs,omitempty" toml:"needs,omitempty"`
}

// Attributes converts the declaration to widget attributes
func (e Element) Attributes() attention.Attributes {
	return attention.Attributes{
		Urgency:  e.Urgency,
		Weight:   e.Weight,
		Priority: e.Priority,
		CanDefer: e.CanDefer,
		Needs:    e.Needs,
	}
}

// Widget builds the declared widget
func (e Element) Widget() *attention.Widget {
	kind := e.Kind
	if kind == "" {
		kind = attention.KindCard
	}
	return attention.NewWidgetWithID(e.ID, kind, e.Attributes())
}

// Expect holds optional assertions about the final pass
type Expect struct {
	Outcomes map[string]attention.Outcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty" toml:"outcomes,omitempty"`
	Used     *attention.Needs             `json:"used,omitempty" yaml:"used,omitempty" toml:"used,omitempty"`
}

// FormatOf maps a file extension to its format
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads and decodes the scenario at path
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	f, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.Path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Decode parses data in the given format and validates it
func Decode(data []byte, format Format) (*File, error) {
	var f File
	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatJSON:
		err = sonic.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks element IDs are present, well formed and unique
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Elements))
	for i, el := range f.Elements {
		if err := id.Validate(el.ID); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if seen[el.ID] {
			return fmt.Errorf("element %d: duplicate id %q", i, el.ID)
		}
		seen[el.ID] = true
	}
	return nil
}

// Expand resolves doublestar patterns into a sorted, de-duplicated list of
// scenario files. A pattern without matches is an error.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}

		n := 0
		for _, match := range matches {
			if _, err := FormatOf(match); err != nil {
				continue
			}
			n++
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Run builds a store with the scenario's capacities, registers its elements
// in file order, applies its context and returns the resulting snapshot
func Run(f *File, logger *zap.Logger) inspect.Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := attention.NewStore(logger.With(zap.String("scenario", f.Name)), attention.Budget{
		MaxScreenSpace:   f.Capacity.Screen,
		MaxAudioTime:     f.Capacity.Audio,
		MaxCognitiveLoad: f.Capacity.Cognitive,
	})

	for _, el := range f.Elements {
		store.Register(el.Widget())
	}
	if !f.Context.IsEmpty() {
		store.UpdateContext(f.Context)
	}

	return inspect.Take(store)
}

// usageTolerance absorbs float summation error in expected usage
const usageTolerance = 1e-9

// Mismatch is one failed expectation
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Field, m.Want, m.Got)
}

// Verify compares the snapshot against the file's expectations. A file
// without expectations always verifies.
func Verify(f *File, snap inspect.Snapshot) []Mismatch {
	if f.Expect == nil {
		return nil
	}

	var mismatches []Mismatch

	outcomes := make(map[string]attention.Outcome, len(snap.Elements))
	for _, v := range snap.Elements {
		outcomes[v.ID] = v.Outcome
	}

	ids := make([]string, 0, len(f.Expect.Outcomes))
	for elementID := range f.Expect.Outcomes {
		ids = append(ids, elementID)
	}
	sort.Strings(ids)

	for _, elementID := range ids {
		want := f.Expect.Outcomes[elementID]
		got, ok := outcomes[elementID]
		if !ok {
			mismatches = append(mismatches, Mismatch{Field: "outcome " + elementID, Want: string(want), Got: "missing"})
			continue
		}
		if got != want {
			mismatches = append(mismatches, Mismatch{Field: "outcome " + elementID, Want: string(want), Got: string(got)})
		}
	}

	if want := f.Expect.Used; want != nil {
		got := snap.Context.Attention.Used()
		for _, dim := range []struct {
			name      string
			want, got float64
		}{
			{"used.screen", want.Screen, got.Screen},
			{"used.audio", want.Audio, got.Audio},
			{"used.cognitive", want.Cognitive, got.Cognitive},
		} {
			if math.Abs(dim.want-dim.got) > usageTolerance {
				mismatches = append(mismatches, Mismatch{
					Field: dim.name,
					Want:  fmt.Sprintf("%g", dim.want),
					Got:   fmt.Sprintf("%g", dim.got),
				})
			}
		}
	}

	return mismatches
}
