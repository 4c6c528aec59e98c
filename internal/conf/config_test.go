package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 3508, s.Align.OutWidth)
	assert.Equal(t, 2480, s.Align.OutHeight)
	assert.Equal(t, 10*time.Second, s.Blueprint.Timeout)

	assert.InDelta(t, 0.08, s.Extract.BlankThreshold, 1e-9)
	assert.InDelta(t, 0.62, s.Extract.MultiThreshold, 1e-9)
	assert.InDelta(t, 0.08, s.Extract.ConfGapThreshold, 1e-9)
	assert.InDelta(t, 0.70, s.Extract.LowConfidenceThreshold, 1e-9)

	assert.InDelta(t, 1.60, s.Identifier.ROIExpand, 1e-9)
	assert.InDelta(t, 0.055, s.Identifier.BlankThreshold, 1e-9)
	assert.InDelta(t, 0.050, s.Identifier.ConfGapThreshold, 1e-9)

	assert.Equal(t, 5, s.Review.MaxBlank)
	assert.Equal(t, 3, s.Review.MaxAmbiguous)
	assert.Equal(t, 5, s.Review.MaxLowConfidence)
	assert.True(t, s.Review.AlignedFalseForcesReview)

	assert.False(t, s.Ingest.GradeSync)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
loglevel: debug
blueprint:
  baseurl: http://templates.internal:8000
  workertoken: abc123
extract:
  blankthreshold: 0.1
review:
  alignedfalseforcesreview: false
ingest:
  gradesync: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "http://templates.internal:8000", s.Blueprint.BaseURL)
	assert.Equal(t, "abc123", s.Blueprint.WorkerToken)
	assert.InDelta(t, 0.1, s.Extract.BlankThreshold, 1e-9)
	assert.False(t, s.Review.AlignedFalseForcesReview)
	assert.True(t, s.Ingest.GradeSync)

	// Untouched keys keep their defaults
	assert.InDelta(t, 0.62, s.Extract.MultiThreshold, 1e-9)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHEETSCAN_SERVER_ADDRESS", ":9999")
	t.Setenv("SHEETSCAN_STORE_SQLITEPATH", "/tmp/env.db")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", s.Server.Address)
	assert.Equal(t, "/tmp/env.db", s.Store.SQLitePath)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero output size", func(s *Settings) { s.Align.OutWidth = 0 }},
		{"zero timeout", func(s *Settings) { s.Blueprint.Timeout = 0 }},
		{"threshold above one", func(s *Settings) { s.Extract.MultiThreshold = 1.5 }},
		{"negative threshold", func(s *Settings) { s.Identifier.BlankThreshold = -0.1 }},
		{"shrinking roi expand", func(s *Settings) { s.Identifier.ROIExpand = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load("")
			require.NoError(t, err)

			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}
