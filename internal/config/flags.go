package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"image":       "input.image",
	"mask":        "input.mask",
	"seed-report": "input.seedreport",
	"no-mask":     "input.nomask",
	"coords":      "output.coords",
	"annotated":   "output.annotated",
	"scoremap":    "output.scoremap",
	"report":      "output.report",
	"threshold":   "detection.similaritythreshold",
	"mask-budget": "detection.maskviolationthreshold",
	"rounds":      "detection.rounds",
	"topk":        "detection.topk",
	"workers":     "detection.workers",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// BindFlags binds every flag in fs that has a config key, so that flags set
// on the command line override the config file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
