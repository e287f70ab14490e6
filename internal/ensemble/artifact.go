package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
)

// scaler is the shared standard scaler fitted once during training. It is
// never refit at inference time.
type scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func loadScaler(path string) (*scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", path, err)
	}
	var s scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler %s: mean/scale length mismatch", path)
	}
	return &s, nil
}

func (s *scaler) transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		d := s.Scale[i]
		if d == 0 {
			d = 1
		}
		scaled[i] = (v - s.Mean[i]) / d
	}
	return scaled, nil
}

// regressor is one exported regression artifact: a weight per scaled feature
// plus an intercept.
type regressor struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func loadRegressor(path string) (*regressor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	var m regressor
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return &m, nil
}

func (m *regressor) predict(scaled []float64) (float64, error) {
	if len(scaled) != len(m.Weights) {
		return 0, fmt.Errorf("model expects %d features, got %d", len(m.Weights), len(scaled))
	}
	out := m.Intercept
	for i, v := range scaled {
		out += m.Weights[i] * v
	}
	return out, nil
}
