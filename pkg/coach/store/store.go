// Package store persists sessions, checkpoints, analyses, mental model
// cards and the problem-metadata cache in Postgres. Callers commit
// independently; there is no cross-request locking.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sketch2solve/coach/pkg/coach/problems"
)

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) CreateSession(ctx context.Context, externalID *string, problem *problems.Metadata) (*Session, error) {
	sess := &Session{
		ID:         NewID("sess"),
		ExternalID: externalID,
		Problem:    problem,
		Status:     StatusActive,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, external_id, problem)
		VALUES ($1, $2, $3)
		RETURNING full_transcript, status, created_at, updated_at`,
		sess.ID, externalID, problem,
	).Scan(&sess.FullTranscript, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns (nil, nil) when no session has the given id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	sess := &Session{ID: id}
	err := s.pool.QueryRow(ctx, `
		SELECT external_id, problem, full_transcript, status, created_at, updated_at
		FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ExternalID, &sess.Problem, &sess.FullTranscript, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

func (s *Store) SetSessionProblem(ctx context.Context, id string, externalID *string, problem *problems.Metadata) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET external_id = $2, problem = $3, updated_at = now()
		WHERE id = $1`, id, externalID, problem)
	if err != nil {
		return fmt.Errorf("update session problem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`,
		id, StatusCompleted)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// CreateCheckpoint inserts cp, assigning its id and created_at.
func (s *Store) CreateCheckpoint(ctx context.Context, cp *Checkpoint) error {
	if cp.ID == "" {
		cp.ID = NewID("cp")
	}
	if cp.Labels == nil {
		cp.Labels = []string{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO checkpoints (id, session_id, sequence_num, pseudocode, whiteboard_json, labels, audio_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		cp.ID, cp.SessionID, cp.SequenceNum, cp.Pseudocode, cp.WhiteboardJSON, cp.Labels, cp.AudioURL,
	).Scan(&cp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (s *Store) GetCheckpoint(ctx context.Context, id string) (*Checkpoint, error) {
	cp := &Checkpoint{ID: id}
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, sequence_num, pseudocode, whiteboard_json, labels, audio_url, transcript_delta, created_at
		FROM checkpoints WHERE id = $1`, id,
	).Scan(&cp.SessionID, &cp.SequenceNum, &cp.Pseudocode, &cp.WhiteboardJSON, &cp.Labels, &cp.AudioURL, &cp.TranscriptDelta, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}
	return cp, nil
}

// LatestCheckpoint returns the checkpoint with the highest sequence number
// for a session, or (nil, nil) when the session has none.
func (s *Store) LatestCheckpoint(ctx context.Context, sessionID string) (*Checkpoint, error) {
	cp := &Checkpoint{SessionID: sessionID}
	err := s.pool.QueryRow(ctx, `
		SELECT id, sequence_num, pseudocode, whiteboard_json, labels, audio_url, transcript_delta, created_at
		FROM checkpoints WHERE session_id = $1
		ORDER BY sequence_num DESC LIMIT 1`, sessionID,
	).Scan(&cp.ID, &cp.SequenceNum, &cp.Pseudocode, &cp.WhiteboardJSON, &cp.Labels, &cp.AudioURL, &cp.TranscriptDelta, &cp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest checkpoint: %w", err)
	}
	return cp, nil
}

// AttachTranscript records a transcript fragment on its checkpoint and
// appends it to the session transcript in a single transaction, so either
// both records see the text or neither does.
func (s *Store) AttachTranscript(ctx context.Context, sessionID, checkpointID, delta string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE checkpoints SET transcript_delta = $2 WHERE id = $1`,
		checkpointID, delta); err != nil {
		return fmt.Errorf("update checkpoint transcript: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sessions
		SET full_transcript = CASE WHEN full_transcript = '' THEN $2
		                           ELSE full_transcript || E'\n' || $2 END,
		    updated_at = now()
		WHERE id = $1`,
		sessionID, delta); err != nil {
		return fmt.Errorf("append session transcript: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) CreateAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = NewID("an")
	}
	if a.MissingPieces == nil {
		a.MissingPieces = []string{}
	}
	if a.Questions == nil {
		a.Questions = []string{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO analyses (id, session_id, checkpoint_id, trigger_type, inferred_pattern,
			confidence, evidence, visual_description, snapshot_url, missing_pieces,
			questions, micro_hint, reveal_outline, raw_llm_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`,
		a.ID, a.SessionID, a.CheckpointID, a.TriggerType, a.InferredPattern,
		a.Confidence, a.Evidence, a.VisualDescription, a.SnapshotURL, a.MissingPieces,
		a.Questions, a.MicroHint, a.RevealOutline, a.RawResponse,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *Store) ListAnalyses(ctx context.Context, sessionID string) ([]Analysis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, checkpoint_id, trigger_type, inferred_pattern, confidence, evidence,
			visual_description, snapshot_url, missing_pieces, questions, micro_hint,
			reveal_outline, raw_llm_response, created_at
		FROM analyses WHERE session_id = $1
		ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a := Analysis{SessionID: sessionID}
		if err := rows.Scan(&a.ID, &a.CheckpointID, &a.TriggerType, &a.InferredPattern,
			&a.Confidence, &a.Evidence, &a.VisualDescription, &a.SnapshotURL,
			&a.MissingPieces, &a.Questions, &a.MicroHint, &a.RevealOutline,
			&a.RawResponse, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CountCheckpoints(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM checkpoints WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (s *Store) CountAnalyses(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM analyses WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (s *Store) CreateCard(ctx context.Context, card *MentalModelCard) error {
	if card.ID == "" {
		card.ID = NewID("card")
	}
	if card.KeyInvariants == nil {
		card.KeyInvariants = []string{}
	}
	if card.ApproachEvolution == nil {
		card.ApproachEvolution = []EvolutionStep{}
	}
	if card.UnansweredQuestions == nil {
		card.UnansweredQuestions = []string{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO mental_model_cards (id, session_id, final_pattern, key_invariants,
			approach_evolution, unanswered_questions, full_transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			final_pattern = EXCLUDED.final_pattern,
			key_invariants = EXCLUDED.key_invariants,
			approach_evolution = EXCLUDED.approach_evolution,
			unanswered_questions = EXCLUDED.unanswered_questions,
			full_transcript = EXCLUDED.full_transcript
		RETURNING id, created_at`,
		card.ID, card.SessionID, card.FinalPattern, card.KeyInvariants,
		card.ApproachEvolution, card.UnansweredQuestions, card.FullTranscript,
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert mental model card: %w", err)
	}
	return nil
}

// GetCard returns (nil, nil) when the session has no card yet.
func (s *Store) GetCard(ctx context.Context, sessionID string) (*MentalModelCard, error) {
	card := &MentalModelCard{SessionID: sessionID}
	err := s.pool.QueryRow(ctx, `
		SELECT id, final_pattern, key_invariants, approach_evolution, unanswered_questions,
			full_transcript, created_at
		FROM mental_model_cards WHERE session_id = $1`, sessionID,
	).Scan(&card.ID, &card.FinalPattern, &card.KeyInvariants, &card.ApproachEvolution,
		&card.UnansweredQuestions, &card.FullTranscript, &card.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select mental model card: %w", err)
	}
	return card, nil
}

// ProblemCache exposes the problem_cache table as the resolver's
// last-resort tier. Writes are last-write-wins on an externally immutable
// key, so concurrent duplicate writes are harmless.
func (s *Store) ProblemCache() problems.Cache {
	return problemCache{pool: s.pool}
}

type problemCache struct {
	pool *pgxpool.Pool
}

func (c problemCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := c.pool.QueryRow(ctx,
		`SELECT payload FROM problem_cache WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select problem cache: %w", err)
	}
	return payload, true, nil
}

func (c problemCache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO problem_cache (key, payload) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert problem cache: %w", err)
	}
	return nil
}
