package ensemble

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySelection is returned when no ensemble member is selected.
var ErrEmptySelection = errors.New("at least one model must be selected")

// Selection marks, per registry position, which models participate in a
// prediction. It is always validated against a registry before use.
type Selection []bool

// NewSelection validates flags against the registry: the length must match
// the registry exactly and at least one flag must be set. Callers (the
// pipeline) reject invalid selections before inference ever starts.
func NewSelection(r *Registry, flags []bool) (Selection, error) {
	if len(flags) != r.Len() {
		return nil, fmt.Errorf("selection has %d flags, registry has %d models", len(flags), r.Len())
	}
	any := false
	for _, f := range flags {
		if f {
			any = true
			break
		}
	}
	if !any {
		return nil, ErrEmptySelection
	}
	sel := make(Selection, len(flags))
	copy(sel, flags)
	return sel, nil
}

// Key serializes the selection to its storage identity, e.g. "1010".
func (s Selection) Key() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, f := range s {
		if f {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Count returns the number of selected models.
func (s Selection) Count() int {
	n := 0
	for _, f := range s {
		if f {
			n++
		}
	}
	return n
}
