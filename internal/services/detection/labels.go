package detection

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// labelConfig sits next to the model file and maps class indices to
// labels, with optional per-label score floors overriding MIN_SCORE.
type labelConfig struct {
	Labels    []string           `yaml:"labels"`
	MinScores map[string]float64 `yaml:"min_scores"`
}

func loadLabelConfig(path string) ([]string, map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read label config: %w", err)
	}

	var cfg labelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parse label config: %w", err)
	}
	if len(cfg.Labels) == 0 {
		return nil, nil, fmt.Errorf("label config %s declares no labels", path)
	}

	if cfg.MinScores == nil {
		cfg.MinScores = make(map[string]float64)
	}
	return cfg.Labels, cfg.MinScores, nil
}
