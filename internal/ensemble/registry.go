// Package ensemble runs a caller-selected subset of pretrained regression
// models over a scaled feature vector and averages their expected-goal
// outputs.
package ensemble

import (
	"fmt"
	"path/filepath"
)

// Entry describes one pretrained ensemble member: a home-goals regressor, an
// away-goals regressor, and a description shown in the model picker.
type Entry struct {
	Name        string
	HomePath    string
	AwayPath    string
	Description string
}

// Registry is the ordered, read-only set of models available for inference,
// plus the shared feature scaler fitted during training. It is constructed
// once at startup and never mutated.
type Registry struct {
	entries    []Entry
	scalerPath string
}

// NewRegistry builds a registry from ordered entries. Entry names must be
// unique; selection keys are positional, so order is part of the identity.
func NewRegistry(scalerPath string, entries ...Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("model registry must contain at least one entry")
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("model registry entry without a name")
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate model registry entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	reg := &Registry{
		entries:    make([]Entry, len(entries)),
		scalerPath: scalerPath,
	}
	copy(reg.entries, entries)
	return reg, nil
}

// DefaultRegistry lists the four shipped model families, with artifacts
// rooted at dir.
func DefaultRegistry(dir string) (*Registry, error) {
	return NewRegistry(
		filepath.Join(dir, "scaler.json"),
		Entry{
			Name:        "XGB",
			HomePath:    filepath.Join(dir, "home_xgb.json"),
			AwayPath:    filepath.Join(dir, "away_xgb.json"),
			Description: "XGBoost: a tree-based ensemble that combines many small decision trees. Fast and strong on structured match statistics.",
		},
		Entry{
			Name:        "MLP",
			HomePath:    filepath.Join(dir, "home_mlp.json"),
			AwayPath:    filepath.Join(dir, "away_mlp.json"),
			Description: "Multilayer perceptron: a small neural network that picks up non-linear relationships between form, ratings and goals.",
		},
		Entry{
			Name:        "GradientBoost",
			HomePath:    filepath.Join(dir, "home_gradient_boosting.json"),
			AwayPath:    filepath.Join(dir, "away_gradient_boosting.json"),
			Description: "Gradient boosting regressor: sequential trees where each new tree corrects the errors of the previous ones.",
		},
		Entry{
			Name:        "SVR",
			HomePath:    filepath.Join(dir, "home_svr.json"),
			AwayPath:    filepath.Join(dir, "away_svr.json"),
			Description: "Support vector regressor: fits a stable curve through historical matches while ignoring small errors.",
		},
	)
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the ordered entries.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ScalerPath returns the path of the shared feature scaler artifact.
func (r *Registry) ScalerPath() string { return r.scalerPath }
