package config

import (
	"github.com/spf13/viper"

	"pcb-viacv/internal/via"
)

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	p := via.DefaultParams()

	v.SetDefault("input.image", "")
	v.SetDefault("input.mask", "")
	v.SetDefault("input.seedreport", "")
	v.SetDefault("input.nomask", false)

	v.SetDefault("output.coords", "")
	v.SetDefault("output.annotated", "")
	v.SetDefault("output.scoremap", "")
	v.SetDefault("output.report", "")

	v.SetDefault("detection.similaritythreshold", p.SimilarityThreshold)
	v.SetDefault("detection.centerweight", p.CenterWeight)
	v.SetDefault("detection.rounds", p.Rounds)
	v.SetDefault("detection.topk", p.TopK)
	v.SetDefault("detection.maskviolationthreshold", p.MaskViolationThreshold)
	v.SetDefault("detection.smearradius", p.SmearRadius)
	v.SetDefault("detection.conflictdiameter", p.ConflictDiameter)
	v.SetDefault("detection.outerdiameter", p.OuterDiameter)
	v.SetDefault("detection.innerdiameter", p.InnerDiameter)
	v.SetDefault("detection.workers", p.Workers)

	v.SetDefault("annotate.color", "#ff0000")
	v.SetDefault("annotate.thickness", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
