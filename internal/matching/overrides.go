package matching

import (
	"os"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// overridesFile is the on-disk curation format. Overrides force a
// Kalshi market onto a specific Polymarket market; exclusions remove a
// Kalshi market from matching entirely.
type overridesFile struct {
	Overrides map[string]string `json:"overrides"`
	Excluded  []string          `json:"excluded"`
}

// loadOverrides reads the curation file. A missing or malformed file
// yields empty maps so a bad edit never stops the scanner.
func loadOverrides(path string, logger *zap.Logger) (map[string]string, map[string]bool) {
	overrides := map[string]string{}
	excluded := map[string]bool{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("overrides-read-failed", zap.String("path", path), zap.Error(err))
		}
		return overrides, excluded
	}

	var file overridesFile
	err = json.Unmarshal(data, &file)
	if err != nil {
		logger.Warn("overrides-parse-failed", zap.String("path", path), zap.Error(err))
		return overrides, excluded
	}

	if file.Overrides != nil {
		overrides = file.Overrides
	}
	for _, id := range file.Excluded {
		excluded[id] = true
	}

	logger.Info("overrides-loaded",
		zap.String("path", path),
		zap.Int("overrides", len(overrides)),
		zap.Int("exclusions", len(excluded)))

	return overrides, excluded
}
