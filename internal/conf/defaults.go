package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers the v1 operating baseline. Threshold values were
// fixed during production tuning; change them through config, not here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("workerversion", "sheetscan_v1")

	v.SetDefault("blueprint.baseurl", "http://localhost:8000")
	v.SetDefault("blueprint.timeout", 10*time.Second)
	v.SetDefault("blueprint.cachettl", 5*time.Minute)
	v.SetDefault("blueprint.workertoken", "")

	// 300 DPI A4 landscape.
	v.SetDefault("align.outwidth", 3508)
	v.SetDefault("align.outheight", 2480)

	v.SetDefault("extract.blankthreshold", 0.08)
	v.SetDefault("extract.multithreshold", 0.62)
	v.SetDefault("extract.confgapthreshold", 0.08)
	v.SetDefault("extract.lowconfidencethreshold", 0.70)

	v.SetDefault("identifier.roiexpand", 1.60)
	v.SetDefault("identifier.blankthreshold", 0.055)
	v.SetDefault("identifier.confgapthreshold", 0.050)

	v.SetDefault("review.confidencefloor", 0.70)
	v.SetDefault("review.maxblank", 5)
	v.SetDefault("review.maxambiguous", 3)
	v.SetDefault("review.maxlowconfidence", 5)
	v.SetDefault("review.alignedfalseforcesreview", true)

	v.SetDefault("store.sqlitepath", "sheetscan.db")

	v.SetDefault("server.address", ":8090")
	v.SetDefault("server.workertoken", "")

	v.SetDefault("ingest.gradesync", false)
}
