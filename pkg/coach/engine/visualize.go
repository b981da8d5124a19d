package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sketch2solve/coach/pkg/coach/prompt"
)

// Shape is one element of a generated diagram; the shape vocabulary is
// defined by the visualizer prompt (box, text, arrow).
type Shape map[string]any

const maxShapes = 12

// PseudocodeToShapes converts pseudocode into a bounded diagram. It
// returns an empty list on trivial input and on any model failure.
func (e *Engine) PseudocodeToShapes(ctx context.Context, pseudocode, problemTitle string) []Shape {
	if len(strings.TrimSpace(pseudocode)) < 10 || e.Reasoner == nil {
		return []Shape{}
	}

	rctx, cancel := context.WithTimeout(ctx, e.ReasoningTimeout)
	defer cancel()
	raw, err := e.Reasoner.Reason(rctx, prompt.VisualizerSystem,
		prompt.BuildVisualizeContext(pseudocode, problemTitle), nil)
	if err != nil {
		e.logger().Warn("visualization failed", "error", err)
		return []Shape{}
	}

	var shapes []Shape
	if err := json.Unmarshal(raw, &shapes); err != nil {
		// The prompt asks for {"shapes": [...]}; a bare list is tolerated
		// above, wrapped objects here.
		var wrapped struct {
			Shapes  []Shape `json:"shapes"`
			Diagram []Shape `json:"diagram"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return []Shape{}
		}
		shapes = wrapped.Shapes
		if shapes == nil {
			shapes = wrapped.Diagram
		}
	}

	valid := make([]Shape, 0, len(shapes))
	for _, s := range shapes {
		switch s["type"] {
		case "box", "text", "arrow":
			valid = append(valid, s)
		}
		if len(valid) == maxShapes {
			break
		}
	}
	return valid
}
