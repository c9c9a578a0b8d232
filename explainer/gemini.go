package explainer

import (
	"context"
	"fmt"
	"log"

	"stocksignals/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiExplainer struct {
	client *genai.Client
	model  string
}

func NewGeminiExplainer(ctx context.Context, apiKey, model string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return &GeminiExplainer{client: client, model: model}, nil
}

func (g *GeminiExplainer) Close() error {
	return g.client.Close()
}

func (g *GeminiExplainer) Explain(ctx context.Context, actions []models.Action) (*Explanation, error) {
	if len(actions) == 0 {
		return &Explanation{Summary: "No actions are recommended right now.", Items: []ActionExplanation{}}, nil
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(actions)))
	if err != nil {
		log.Printf("Error from Gemini API: %v", err)
		return nil, fmt.Errorf("failed to generate explanation: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	exp, err := ParseExplanation(text)
	if err != nil {
		log.Printf("Could not parse Gemini explanation: %s", text)
		return nil, err
	}
	return exp, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content received from AI")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content received from AI")
	}
	return text, nil
}
