package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sketch2solve/coach/pkg/coach/blob"
	"github.com/sketch2solve/coach/pkg/coach/events"
	"github.com/sketch2solve/coach/pkg/coach/store"
)

type fakeCheckpointStore struct {
	created *store.Checkpoint
	err     error
}

func (f *fakeCheckpointStore) CreateCheckpoint(_ context.Context, cp *store.Checkpoint) error {
	if f.err != nil {
		return f.err
	}
	cp.ID = "cp_new"
	f.created = cp
	return nil
}

type fakeBackgroundTranscriber struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func (f *fakeBackgroundTranscriber) TranscribeAndAttach(_ context.Context, _ []byte, sessionID, checkpointID string) {
	f.mu.Lock()
	f.calls = append(f.calls, sessionID+"/"+checkpointID)
	f.mu.Unlock()
	close(f.done)
}

type recordSink struct {
	mu   sync.Mutex
	msgs []any
}

func (s *recordSink) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for name, data := range files {
		fw, err := w.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("create file %s: %v", name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
			t.Fatalf("copy file %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func newCheckpointsHandler(t *testing.T) (CheckpointsHandler, *fakeCheckpointStore, *fakeBackgroundTranscriber, *recordSink, string) {
	t.Helper()
	fs := &fakeCheckpointStore{}
	tr := &fakeBackgroundTranscriber{done: make(chan struct{})}
	hub := events.NewHub(nil)
	sink := &recordSink{}
	hub.Register("s1", sink)
	dir := t.TempDir()
	h := CheckpointsHandler{
		Store:        fs,
		Blobs:        blob.Dir{Root: dir},
		Hub:          hub,
		Transcriber:  tr,
		MaxBodyBytes: 16 << 20,
	}
	return h, fs, tr, sink, dir
}

func TestCheckpoints_WithAudio(t *testing.T) {
	h, fs, tr, sink, dir := newCheckpointsHandler(t)

	body, contentType := multipartBody(t,
		map[string]string{
			"session_id":      "s1",
			"sequence_num":    "4",
			"pseudocode":      "while l < r",
			"whiteboard_json": `{"shapes":[]}`,
			"labels":          `["left pointer", {"text": "right pointer"}, 42]`,
		},
		map[string][]byte{"audio_blob": bytes.Repeat([]byte("a"), 2048)},
	)
	req := httptest.NewRequest(http.MethodPost, "/checkpoints", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	cp := fs.created
	if cp == nil {
		t.Fatal("no checkpoint created")
	}
	if cp.SequenceNum != 4 || cp.Pseudocode != "while l < r" {
		t.Fatalf("checkpoint=%+v", cp)
	}
	if len(cp.Labels) != 2 || cp.Labels[0] != "left pointer" || cp.Labels[1] != "right pointer" {
		t.Fatalf("labels=%v", cp.Labels)
	}
	if cp.AudioURL == nil || *cp.AudioURL != "/uploads/s1/audio_4.webm" {
		t.Fatalf("audio_url=%v", cp.AudioURL)
	}
	if _, err := os.Stat(filepath.Join(dir, "s1", "audio_4.webm")); err != nil {
		t.Fatalf("audio blob not written: %v", err)
	}

	select {
	case <-tr.done:
	case <-time.After(2 * time.Second):
		t.Fatal("background transcription never started")
	}
	if tr.calls[0] != "s1/cp_new" {
		t.Fatalf("transcriber call=%v", tr.calls)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.msgs) != 1 {
		t.Fatalf("published=%v", sink.msgs)
	}
	evt, ok := sink.msgs[0].(events.CheckpointSaved)
	if !ok || evt.Type != "checkpoint_saved" || evt.CheckpointID != "cp_new" {
		t.Fatalf("event=%#v", sink.msgs[0])
	}

	resp := decodeBody(t, rr)
	if resp["checkpoint_id"] != "cp_new" {
		t.Fatalf("response=%v", resp)
	}
	if v, present := resp["transcript_delta"]; !present || v != nil {
		t.Fatalf("transcript_delta=%v", v)
	}
}

func TestCheckpoints_WithoutAudioSkipsTranscription(t *testing.T) {
	h, fs, tr, _, _ := newCheckpointsHandler(t)

	body, contentType := multipartBody(t, map[string]string{
		"session_id":   "s1",
		"sequence_num": "1",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/checkpoints", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if fs.created.AudioURL != nil {
		t.Fatalf("audio_url=%v", fs.created.AudioURL)
	}
	if fs.created.WhiteboardJSON != "{}" {
		t.Fatalf("whiteboard_json=%q", fs.created.WhiteboardJSON)
	}

	select {
	case <-tr.done:
		t.Fatal("transcriber must not run without audio")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCheckpoints_MissingSessionID(t *testing.T) {
	h, _, _, _, _ := newCheckpointsHandler(t)

	body, contentType := multipartBody(t, map[string]string{"sequence_num": "1"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/checkpoints", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCheckpoints_BadSequenceNum(t *testing.T) {
	h, _, _, _, _ := newCheckpointsHandler(t)

	body, contentType := multipartBody(t, map[string]string{
		"session_id":   "s1",
		"sequence_num": "not-a-number",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/checkpoints", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestParseLabels(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{`["a", "b"]`, []string{"a", "b"}},
		{`[{"text": "x"}, "y", {"other": 1}]`, []string{"x", "y"}},
		{`not json`, []string{}},
		{``, []string{}},
		{`{"text": "not a list"}`, []string{}},
	}
	for _, tc := range cases {
		got := parseLabels(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("parseLabels(%q) = %v, want %v", tc.raw, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseLabels(%q)[%d] = %q, want %q", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}
