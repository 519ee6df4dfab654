package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/scenario"
	"github.com/GriffinCanCode/AgentOS/attention/internal/testutil"
)

func TestLoadAllFormatsAgree(t *testing.T) {
	for _, name := range []string{"overflow.yaml", "overflow.toml", "overflow.json"} {
		t.Run(name, func(t *testing.T) {
			f, err := scenario.Load(filepath.Join("testdata", name))
			require.NoError(t, err)

			assert.Equal(t, "overflow", f.Name)
			assert.Equal(t, attention.Needs{Screen: 100, Audio: 10, Cognitive: 3}, f.Capacity)
			require.Len(t, f.Elements, 3)
			assert.Equal(t, "e1", f.Elements[0].ID)
			assert.Equal(t, attention.UrgencyHigh, f.Elements[0].Urgency)
			require.NotNil(t, f.Elements[2].Needs)
			require.NotNil(t, f.Elements[2].Needs.Cognitive)
			assert.Equal(t, 0.5, *f.Elements[2].Needs.Cognitive)

			snap := scenario.Run(f, testutil.NewLogger(t))

			require.Len(t, snap.Elements, 3)
			assert.Equal(t, "e1", snap.Elements[0].ID)
			assert.Equal(t, 180, snap.Elements[0].Score)
			assert.Equal(t, attention.Needs{Screen: 70, Audio: 3, Cognitive: 1.5}, snap.Context.Attention.Used())
			assert.Empty(t, scenario.Verify(f, snap))
		})
	}
}

func TestLoadDefaultsNameToFileStem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unnamed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("elements:\n  - id: a\n"), 0o644))

	f, err := scenario.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", f.Name)
	assert.Equal(t, path, f.Path)
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "s.ini", "name = x"},
		{"malformed yaml", "s.yaml", "elements: [\n"},
		{"malformed json", "s.json", "{"},
		{"missing id", "s.json", `{"elements": [{"urgency": "high"}]}`},
		{"duplicate id", "s.toml", "[[elements]]\nid = \"a\"\n[[elements]]\nid = \"a\"\n"},
		{"invalid id", "s.yaml", "elements:\n  - id: \"has space\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := scenario.Load(path)
			assert.Error(t, err)
		})
	}

	_, err := scenario.Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	_, err = scenario.Load(filepath.Join(dir, "s.ini"))
	assert.ErrorIs(t, err, scenario.ErrUnsupportedFormat)
}

func TestExpand(t *testing.T) {
	paths, err := scenario.Expand([]string{
		"testdata/**/*.yml",
		"testdata/overflow.*",
		"testdata/overflow.yaml",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "nested", "noisy_voice.yml"),
		filepath.Join("testdata", "overflow.json"),
		filepath.Join("testdata", "overflow.toml"),
		filepath.Join("testdata", "overflow.yaml"),
	}, paths)

	_, err = scenario.Expand([]string{"testdata/*.ini"})
	assert.ErrorIs(t, err, scenario.ErrNoMatch)
}

func TestRunAppliesContext(t *testing.T) {
	f, err := scenario.Load(filepath.Join("testdata", "nested", "noisy_voice.yml"))
	require.NoError(t, err)

	snap := scenario.Run(f, testutil.NewLogger(t))

	assert.Equal(t, attention.ModalityVoiceOnly, snap.Context.Modality)
	assert.Equal(t, attention.DefaultCapacity().Capacity(), snap.Context.Attention.Capacity())

	require.Len(t, snap.Elements, 2)
	assert.Equal(t, "alarm", snap.Elements[0].ID)
	assert.Equal(t, 70, snap.Elements[0].Score)
	assert.Equal(t, "reminder", snap.Elements[1].ID)
	assert.Equal(t, 13, snap.Elements[1].Score)
	assert.Empty(t, scenario.Verify(f, snap))
}

func TestVerifyReportsMismatches(t *testing.T) {
	f, err := scenario.Load(filepath.Join("testdata", "overflow.yaml"))
	require.NoError(t, err)

	f.Expect.Outcomes["e2"] = attention.OutcomeAllocated
	f.Expect.Outcomes["ghost"] = attention.OutcomeDeferred
	f.Expect.Used.Screen = 110

	mismatches := scenario.Verify(f, scenario.Run(f, nil))
	require.Len(t, mismatches, 3)

	assert.Equal(t, "outcome e2: want allocated, got deferred", mismatches[0].String())
	assert.Equal(t, "outcome ghost: want deferred, got missing", mismatches[1].String())
	assert.Equal(t, "used.screen: want 110, got 70", mismatches[2].String())

	f.Expect = nil
	assert.Empty(t, scenario.Verify(f, scenario.Run(f, nil)))
}
