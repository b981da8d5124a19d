package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ElevenLabs synthesizes hint audio. An empty API key disables the
// capability; Synthesize then reports absence rather than an error.
type ElevenLabs struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string

	HTTPClient *http.Client
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns mp3 bytes for text, or (nil, nil) when the feature is
// disabled or there is nothing to say.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(e.APIKey) == "" || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: e.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, err
	}

	u := strings.TrimRight(e.BaseURL, "/") + "/v1/text-to-speech/" + e.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
