package explainer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stocksignals/models"
)

// Explainer turns recommended actions into merchant-facing prose. It never
// changes the actions themselves.
type Explainer interface {
	Explain(ctx context.Context, actions []models.Action) (*Explanation, error)
}

type Explanation struct {
	Summary string              `json:"summary"`
	Items   []ActionExplanation `json:"items"`
}

type ActionExplanation struct {
	SKU         string `json:"sku"`
	Unit        string `json:"unit"`
	Action      string `json:"action"`
	Explanation string `json:"explanation"`
}

// WithDeadline runs e.Explain bounded by timeout. A slow explainer is
// abandoned and the context error returned.
func WithDeadline(ctx context.Context, e Explainer, actions []models.Action, timeout time.Duration) (*Explanation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		explanation *Explanation
		err         error
	}
	done := make(chan result, 1)
	go func() {
		exp, err := e.Explain(ctx, actions)
		done <- result{exp, err}
	}()

	select {
	case r := <-done:
		return r.explanation, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("explanation: %w", ctx.Err())
	}
}

// BuildPrompt renders the actions into the instruction sent to the model.
func BuildPrompt(actions []models.Action) string {
	var lines strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&lines, "- %s for SKU %s (unit %s), priority %s: %s\n",
			a.Type, a.ProductKey.SKU, a.ProductKey.Unit, a.Priority, a.Reason)
	}

	jsonFormat := `{"summary":"string","items":[{"sku":"string","unit":"string","action":"string","explanation":"string"},...]}`

	return fmt.Sprintf(`
        You are an inventory advisor for a small retail merchant. Explain each recommended action below in one or two plain sentences. Use only the figures given; do not invent numbers or new actions.

        **Recommended Actions:**
        %s
        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, lines.String(), jsonFormat)
}

func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

// ParseExplanation reads the model's reply. Anything wrapped around the JSON
// object is ignored.
func ParseExplanation(text string) (*Explanation, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return nil, fmt.Errorf("failed to parse AI response format")
	}
	var exp Explanation
	if err := json.Unmarshal([]byte(jsonStr), &exp); err != nil {
		return nil, fmt.Errorf("failed to parse AI explanation: %w", err)
	}
	return &exp, nil
}
