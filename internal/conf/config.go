package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BlueprintSettings configures the template metadata client.
type BlueprintSettings struct {
	BaseURL     string        `mapstructure:"baseurl"`     // template service base URL
	Timeout     time.Duration `mapstructure:"timeout"`     // fetch timeout, bounded
	CacheTTL    time.Duration `mapstructure:"cachettl"`    // per-question-count cache TTL
	WorkerToken string        `mapstructure:"workertoken"` // X-Worker-Token value, optional
}

// AlignSettings configures the alignment stage and the rectification target.
type AlignSettings struct {
	OutWidth  int `mapstructure:"outwidth"`  // rectified page width in pixels
	OutHeight int `mapstructure:"outheight"` // rectified page height in pixels
}

// ExtractSettings holds the answer classification thresholds.
//
// Defaults match the v1 operating baseline: fill scores are dark-pixel
// ratios in [0,1], so thresholds are small fractions.
type ExtractSettings struct {
	BlankThreshold         float64 `mapstructure:"blankthreshold"`
	MultiThreshold         float64 `mapstructure:"multithreshold"`
	ConfGapThreshold       float64 `mapstructure:"confgapthreshold"`
	LowConfidenceThreshold float64 `mapstructure:"lowconfidencethreshold"`
}

// IdentifierSettings holds the identifier-digit classification thresholds.
// They are deliberately looser than the answer thresholds: bubble ROIs are
// sampled around a center point and absorb more capture noise.
type IdentifierSettings struct {
	ROIExpand        float64 `mapstructure:"roiexpand"`
	BlankThreshold   float64 `mapstructure:"blankthreshold"`
	ConfGapThreshold float64 `mapstructure:"confgapthreshold"`
}

// ReviewSettings configures the manual-review escalation policy.
type ReviewSettings struct {
	ConfidenceFloor          float64 `mapstructure:"confidencefloor"`
	MaxBlank                 int     `mapstructure:"maxblank"`
	MaxAmbiguous             int     `mapstructure:"maxambiguous"`
	MaxLowConfidence         int     `mapstructure:"maxlowconfidence"`
	AlignedFalseForcesReview bool    `mapstructure:"alignedfalseforcesreview"`
}

// StoreSettings configures the submission datastore.
type StoreSettings struct {
	SQLitePath string `mapstructure:"sqlitepath"`
}

// ServerSettings configures the internal HTTP surface.
type ServerSettings struct {
	Address     string `mapstructure:"address"`
	WorkerToken string `mapstructure:"workertoken"` // required header for ingest calls, optional
}

// IngestSettings configures ingestion behavior.
type IngestSettings struct {
	GradeSync bool `mapstructure:"gradesync"` // grade_now instead of grade_async_in_results
}

// Settings is the process-wide configuration. It is constructed once at
// startup by Load and treated as immutable afterwards; components receive
// the sub-structs they need by value.
type Settings struct {
	LogLevel      string             `mapstructure:"loglevel"`
	WorkerVersion string             `mapstructure:"workerversion"`
	Blueprint     BlueprintSettings  `mapstructure:"blueprint"`
	Align         AlignSettings      `mapstructure:"align"`
	Extract       ExtractSettings    `mapstructure:"extract"`
	Identifier    IdentifierSettings `mapstructure:"identifier"`
	Review        ReviewSettings     `mapstructure:"review"`
	Store         StoreSettings      `mapstructure:"store"`
	Server        ServerSettings     `mapstructure:"server"`
	Ingest        IngestSettings     `mapstructure:"ingest"`
}

// Load builds Settings from defaults, an optional YAML config file, and
// SHEETSCAN_* environment variables (e.g. SHEETSCAN_BLUEPRINT_BASEURL).
// configPath may be empty, in which case only defaults and env apply.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("sheetscan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings that would make the pipeline misbehave silently.
func (s *Settings) Validate() error {
	if s.Align.OutWidth <= 0 || s.Align.OutHeight <= 0 {
		return errors.New("align: output size must be positive")
	}
	if s.Blueprint.Timeout <= 0 {
		return errors.New("blueprint: timeout must be positive")
	}
	for name, t := range map[string]float64{
		"extract.blankthreshold":         s.Extract.BlankThreshold,
		"extract.multithreshold":         s.Extract.MultiThreshold,
		"extract.confgapthreshold":       s.Extract.ConfGapThreshold,
		"extract.lowconfidencethreshold": s.Extract.LowConfidenceThreshold,
		"identifier.blankthreshold":      s.Identifier.BlankThreshold,
		"identifier.confgapthreshold":    s.Identifier.ConfGapThreshold,
		"review.confidencefloor":         s.Review.ConfidenceFloor,
	} {
		if t < 0 || t > 1 {
			return fmt.Errorf("%s: threshold %v outside [0,1]", name, t)
		}
	}
	if s.Identifier.ROIExpand < 1.0 {
		return errors.New("identifier.roiexpand must be >= 1.0")
	}
	return nil
}
