package extract

// Config holds the answer classification thresholds. All values are fill
// scores in [0,1] and independently overridable through configuration.
type Config struct {
	// BlankThreshold: a question is blank when even the best choice
	// scores below this.
	BlankThreshold float64

	// MultiThreshold: two or more choices at or above this make the
	// question a multi-mark.
	MultiThreshold float64

	// ConfGapThreshold: the winner must beat the runner-up by at least
	// this much, or the read is ambiguous.
	ConfGapThreshold float64

	// LowConfidenceThreshold: a clean single mark below this is reported
	// low_confidence instead of ok. A score exactly at the threshold is
	// ok.
	LowConfidenceThreshold float64
}

// DefaultConfig is the v1 operating baseline for answer regions.
func DefaultConfig() Config {
	return Config{
		BlankThreshold:         0.08,
		MultiThreshold:         0.62,
		ConfGapThreshold:       0.08,
		LowConfidenceThreshold: 0.70,
	}
}

// IdentifierConfig holds the identifier-digit thresholds. They are looser
// than the answer thresholds because bubble ROIs are sampled around a
// center point and absorb more capture noise.
type IdentifierConfig struct {
	BlankThreshold   float64
	ConfGapThreshold float64
}

// DefaultIdentifierConfig is the v1 operating baseline for identifier
// digits.
func DefaultIdentifierConfig() IdentifierConfig {
	return IdentifierConfig{
		BlankThreshold:   0.055,
		ConfGapThreshold: 0.050,
	}
}
