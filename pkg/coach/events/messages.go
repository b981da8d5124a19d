package events

// Outbound event payloads. The Type discriminator matches what the web
// client switches on.

type CheckpointSaved struct {
	Type         string `json:"type"` // "checkpoint_saved"
	CheckpointID string `json:"checkpoint_id"`
}

type TranscriptDelta struct {
	Type      string `json:"type"` // "transcript_delta"
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

type CoachResponse struct {
	Type     string `json:"type"` // "coach_response"
	Analysis any    `json:"analysis"`
}
