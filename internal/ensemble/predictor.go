package ensemble

import (
	"fmt"

	"go.uber.org/zap"
)

// Predictor runs the selected registry members over a raw feature vector.
type Predictor struct {
	registry *Registry
	logger   *zap.SugaredLogger
}

// NewPredictor creates a predictor bound to an immutable registry.
func NewPredictor(registry *Registry, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{registry: registry, logger: logger.Sugar()}
}

// Predict scales the raw feature vector with the shared scaler, runs each
// selected member's home and away regressors, and arithmetic-means the
// outputs into expected goals.
//
// The selection must come from NewSelection, so it is non-empty and matches
// the registry length. Artifacts are re-read from disk on every call, which
// makes this latency-heavy; callers dispatch it through the inference worker
// pool rather than running it inline.
func (p *Predictor) Predict(features []float64, sel Selection) (homeXG, awayXG float64, err error) {
	sc, err := loadScaler(p.registry.ScalerPath())
	if err != nil {
		return 0, 0, err
	}
	scaled, err := sc.transform(features)
	if err != nil {
		return 0, 0, err
	}

	var homeSum, awaySum float64
	n := 0
	for i, e := range p.registry.entries {
		if i >= len(sel) || !sel[i] {
			continue
		}

		home, inferErr := infer(e.HomePath, scaled)
		if inferErr != nil {
			return 0, 0, fmt.Errorf("model %s: %w", e.Name, inferErr)
		}
		away, inferErr := infer(e.AwayPath, scaled)
		if inferErr != nil {
			return 0, 0, fmt.Errorf("model %s: %w", e.Name, inferErr)
		}

		homeSum += home
		awaySum += away
		n++
	}
	if n == 0 {
		return 0, 0, ErrEmptySelection
	}

	homeXG = homeSum / float64(n)
	awayXG = awaySum / float64(n)
	p.logger.Debugw("Ensemble inference complete", "models", n, "homeXG", homeXG, "awayXG", awayXG)
	return homeXG, awayXG, nil
}

func infer(path string, scaled []float64) (float64, error) {
	m, err := loadRegressor(path)
	if err != nil {
		return 0, err
	}
	return m.predict(scaled)
}
