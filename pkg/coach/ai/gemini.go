// Package ai wraps the external model capabilities: multimodal reasoning
// and speech-to-text on Gemini, speech synthesis on ElevenLabs.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const transcribeInstruction = "Transcribe this audio clip of a person reasoning aloud while solving a coding problem. Return only the spoken words, nothing else. If the clip contains no intelligible speech, return an empty response."

// Gemini performs reasoning and transcription calls against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Reason sends the system instructions plus the assembled context (and the
// whiteboard image, when present) as one multi-part request with forced
// JSON output. The raw structured body is returned for the caller to parse
// and audit.
func (g *Gemini) Reason(ctx context.Context, system, contextText string, imagePNG []byte) (json.RawMessage, error) {
	parts := []*genai.Part{genai.NewPartFromText(contextText)}
	if len(imagePNG) > 0 {
		parts = append(parts, genai.NewPartFromBytes(imagePNG, "image/png"))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty model response")
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model response is not valid JSON")
	}
	return json.RawMessage(text), nil
}

// Transcribe converts an audio clip to text.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(transcribeInstruction),
		genai.NewPartFromBytes(audio, "audio/webm"),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
