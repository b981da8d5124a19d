// Package blob stores uploaded artifacts (audio clips, whiteboard
// snapshots, synthesized hints) and hands back locators that are embedded
// verbatim in persisted records.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
)

type Store interface {
	Save(sessionID, filename string, data []byte) (string, error)
}

// Dir is a filesystem-backed Store. Locators take the form
// /uploads/{session}/{file} and are served by the HTTP layer from Root.
type Dir struct {
	Root string
}

func (d Dir) Save(sessionID, filename string, data []byte) (string, error) {
	// Locators are built from client-influenced names; strip any path parts.
	sessionID = filepath.Base(sessionID)
	filename = filepath.Base(filename)
	if sessionID == "." || sessionID == string(filepath.Separator) {
		return "", fmt.Errorf("invalid session id")
	}
	if filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename")
	}

	dir := filepath.Join(d.Root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return "/uploads/" + sessionID + "/" + filename, nil
}
