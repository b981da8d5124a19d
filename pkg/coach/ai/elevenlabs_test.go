package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestElevenLabs_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "key123" {
			t.Errorf("xi-api-key=%q", r.Header.Get("xi-api-key"))
		}
		if r.URL.Path != "/v1/text-to-speech/voice42" {
			t.Errorf("path=%q", r.URL.Path)
		}
		var body elevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "try a hashmap" {
			t.Errorf("text=%q", body.Text)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	e := &ElevenLabs{APIKey: "key123", VoiceID: "voice42", ModelID: "eleven_flash_v2_5", BaseURL: srv.URL}

	audio, err := e.Synthesize(context.Background(), "try a hashmap")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("audio=%q", audio)
	}
}

func TestElevenLabs_DisabledReturnsAbsent(t *testing.T) {
	e := &ElevenLabs{APIKey: "", VoiceID: "v", BaseURL: "http://127.0.0.1:0"}

	audio, err := e.Synthesize(context.Background(), "anything")
	if err != nil || audio != nil {
		t.Fatalf("audio=%v err=%v", audio, err)
	}
}

func TestElevenLabs_EmptyTextIsAbsent(t *testing.T) {
	e := &ElevenLabs{APIKey: "key", VoiceID: "v", BaseURL: "http://127.0.0.1:0"}

	audio, err := e.Synthesize(context.Background(), "  ")
	if err != nil || audio != nil {
		t.Fatalf("audio=%v err=%v", audio, err)
	}
}

func TestElevenLabs_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := &ElevenLabs{APIKey: "key", VoiceID: "v", BaseURL: srv.URL}
	if _, err := e.Synthesize(context.Background(), "hint"); err == nil {
		t.Fatal("expected error on 429")
	}
}
