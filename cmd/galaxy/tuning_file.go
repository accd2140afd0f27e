package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"galaxytrade/internal/sim/tuning"
)

// writeEffectiveTuning records the tuning a run used so cmd/replay can rebuild
// the same engine.
func writeEffectiveTuning(runDir string, t tuning.Tuning) error {
	b, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, "tuning.yaml"), b, 0o644)
}
