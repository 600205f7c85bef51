// Package store persists voices in SQLite.
//
// The store is the durable record behind the in-memory facade: signature
// scalars and the style profile live in the voices table, pooled contrast
// anchors in contrast_vectors, raw samples with their embeddings in
// sample_batches/samples, and the feedback log in feedback_log. Batches and
// the log keep their insertion order so a voice can be rebuilt by replay.
//
// # Thread Safety
//
// Store is safe for concurrent use. The underlying sql.DB handles connection
// pooling and serialization. Individual operations are atomic, but sequences
// of operations (read-modify-write) require external synchronization.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/abelbrown/voiceprint/internal/signature"
	"github.com/abelbrown/voiceprint/internal/style"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// ErrNotFound is returned when the requested voice does not exist.
var ErrNotFound = errors.New("store: voice not found")

// Store handles persistence of voices, samples and feedback history.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
//
// The database is created if it doesn't exist, and migrations are applied
// automatically.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS voices (
		identity TEXT PRIMARY KEY,
		primary_vector BLOB,
		dim INTEGER NOT NULL DEFAULT 0,
		sample_count INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0,
		threshold REAL NOT NULL,
		confidence REAL NOT NULL,
		positive INTEGER NOT NULL DEFAULT 0,
		negative INTEGER NOT NULL DEFAULT 0,
		profile TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contrast_vectors (
		identity TEXT NOT NULL,
		category TEXT NOT NULL,
		vector BLOB NOT NULL,
		sample_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (identity, category)
	);

	CREATE TABLE IF NOT EXISTS sample_batches (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		words INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_identity ON sample_batches(identity);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_seq INTEGER NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_batch ON samples(batch_seq);

	CREATE TABLE IF NOT EXISTS feedback_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		identity TEXT NOT NULL,
		event_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		embedding BLOB NOT NULL,
		accepted INTEGER NOT NULL,
		weight REAL NOT NULL,
		at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_identity ON feedback_log(identity);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SampleBatch is one ingestion batch to persist: the texts, their
// embeddings and the batch word count. Category is empty for voice samples
// and names the contrast category otherwise.
type SampleBatch struct {
	Category string
	Texts    []string
	Vectors  [][]float32
	Words    int
}

// SaveVoice upserts the signature scalars, primary vector, contrast anchors
// and style profile for one identity. The feedback log is written separately
// through AppendEvents; SaveVoice never touches it.
func (s *Store) SaveVoice(sig *signature.Signature, profile *style.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertVoiceTx(tx, sig, profile); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveVoiceWithBatch records one ingestion batch and upserts the voice in a
// single transaction, so a failure leaves neither half behind.
func (s *Store) SaveVoiceWithBatch(sig *signature.Signature, profile *style.Profile, batch SampleBatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBatchTx(tx, sig.Identity, batch); err != nil {
		return err
	}
	if err := upsertVoiceTx(tx, sig, profile); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveVoiceWithEvents appends feedback events and upserts the voice in a
// single transaction. The log never gains an event whose mutation did not
// also commit, so replaying the stored log always reproduces the stored
// voice.
func (s *Store) SaveVoiceWithEvents(sig *signature.Signature, profile *style.Profile, events []signature.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEventsTx(tx, sig.Identity, events); err != nil {
		return err
	}
	if err := upsertVoiceTx(tx, sig, profile); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceVoice atomically swaps an identity's entire durable record: the old
// voice, batches and feedback log are deleted and the new voice with its
// initial batches is written, all in one transaction. A failure leaves the
// previous record untouched.
func (s *Store) ReplaceVoice(sig *signature.Signature, profile *style.Profile, batches []SampleBatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteVoiceTx(tx, sig.Identity); err != nil {
		return err
	}
	for _, batch := range batches {
		if err := insertBatchTx(tx, sig.Identity, batch); err != nil {
			return err
		}
	}
	if err := upsertVoiceTx(tx, sig, profile); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertVoiceTx(tx *sql.Tx, sig *signature.Signature, profile *style.Profile) error {
	var profileJSON []byte
	if profile != nil {
		var err error
		profileJSON, err = json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
	}

	_, err := tx.Exec(`
		INSERT INTO voices (identity, primary_vector, dim, sample_count, total_words, threshold, confidence, positive, negative, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			primary_vector = excluded.primary_vector,
			dim = excluded.dim,
			sample_count = excluded.sample_count,
			total_words = excluded.total_words,
			threshold = excluded.threshold,
			confidence = excluded.confidence,
			positive = excluded.positive,
			negative = excluded.negative,
			profile = excluded.profile,
			updated_at = excluded.updated_at`,
		sig.Identity, serializeEmbedding(sig.Primary), sig.Dim, sig.SampleCount, sig.TotalWords,
		sig.Threshold, sig.Confidence, sig.Positive, sig.Negative, nullableString(profileJSON),
		sig.CreatedAt, sig.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save voice %s: %w", sig.Identity, err)
	}

	if _, err := tx.Exec("DELETE FROM contrast_vectors WHERE identity = ?", sig.Identity); err != nil {
		return fmt.Errorf("failed to clear contrast vectors: %w", err)
	}
	for category, vec := range sig.Contrast {
		_, err := tx.Exec(
			"INSERT INTO contrast_vectors (identity, category, vector, sample_count) VALUES (?, ?, ?, ?)",
			sig.Identity, category, serializeEmbedding(vec), sig.ContrastCounts[category])
		if err != nil {
			return fmt.Errorf("failed to save contrast %s/%s: %w", sig.Identity, category, err)
		}
	}

	return nil
}

// LoadVoice reads the signature (including its feedback log) and style
// profile for one identity. Returns ErrNotFound if the voice was never saved.
func (s *Store) LoadVoice(identity string) (*signature.Signature, *style.Profile, error) {
	sig := signature.New(identity)
	var primaryBlob []byte
	var profileJSON sql.NullString

	err := s.db.QueryRow(`
		SELECT primary_vector, dim, sample_count, total_words, threshold, confidence, positive, negative, profile, created_at, updated_at
		FROM voices WHERE identity = ?`, identity).Scan(
		&primaryBlob, &sig.Dim, &sig.SampleCount, &sig.TotalWords, &sig.Threshold,
		&sig.Confidence, &sig.Positive, &sig.Negative, &profileJSON, &sig.CreatedAt, &sig.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load voice %s: %w", identity, err)
	}
	sig.Primary = deserializeEmbedding(primaryBlob)

	rows, err := s.db.Query(
		"SELECT category, vector, sample_count FROM contrast_vectors WHERE identity = ?", identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load contrast vectors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var blob []byte
		var count int
		if err := rows.Scan(&category, &blob, &count); err != nil {
			return nil, nil, fmt.Errorf("failed to scan contrast vector: %w", err)
		}
		sig.Contrast[category] = deserializeEmbedding(blob)
		sig.ContrastCounts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating contrast vectors: %w", err)
	}

	sig.Log, err = s.LoadEvents(identity)
	if err != nil {
		return nil, nil, err
	}

	var profile *style.Profile
	if profileJSON.Valid && profileJSON.String != "" {
		profile = &style.Profile{}
		if err := json.Unmarshal([]byte(profileJSON.String), profile); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal profile for %s: %w", identity, err)
		}
	}

	return sig, profile, nil
}

// AppendSampleBatch records one ingestion batch: the texts, their embeddings
// and the batch word count, in order. category is empty for voice samples
// and names the contrast category otherwise.
func (s *Store) AppendSampleBatch(identity, category string, texts []string, vecs [][]float32, words int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBatchTx(tx, identity, SampleBatch{Category: category, Texts: texts, Vectors: vecs, Words: words}); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBatchTx(tx *sql.Tx, identity string, batch SampleBatch) error {
	if len(batch.Texts) != len(batch.Vectors) {
		return fmt.Errorf("store: %d texts but %d embeddings", len(batch.Texts), len(batch.Vectors))
	}

	res, err := tx.Exec(
		"INSERT INTO sample_batches (identity, category, words, created_at) VALUES (?, ?, ?, ?)",
		identity, batch.Category, batch.Words, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	batchSeq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read batch seq: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO samples (batch_seq, position, text, embedding) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, text := range batch.Texts {
		if _, err := stmt.Exec(batchSeq, i, text, serializeEmbedding(batch.Vectors[i])); err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}
	return nil
}

// LoadBatches returns every recorded batch for an identity in insertion
// order, ready to feed signature.Replay.
func (s *Store) LoadBatches(identity string) ([]signature.Batch, error) {
	rows, err := s.db.Query(
		"SELECT seq, category, words FROM sample_batches WHERE identity = ? ORDER BY seq", identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []signature.Batch
	var seqs []int64
	for rows.Next() {
		var seq int64
		var b signature.Batch
		if err := rows.Scan(&seq, &b.Category, &b.Words); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batches: %w", err)
	}

	for i, seq := range seqs {
		vecRows, err := s.db.Query(
			"SELECT embedding FROM samples WHERE batch_seq = ? ORDER BY position", seq)
		if err != nil {
			return nil, fmt.Errorf("failed to query samples for batch %d: %w", seq, err)
		}
		for vecRows.Next() {
			var blob []byte
			if err := vecRows.Scan(&blob); err != nil {
				vecRows.Close()
				return nil, fmt.Errorf("failed to scan sample: %w", err)
			}
			batches[i].Vectors = append(batches[i].Vectors, deserializeEmbedding(blob))
		}
		if err := vecRows.Err(); err != nil {
			vecRows.Close()
			return nil, fmt.Errorf("error iterating samples: %w", err)
		}
		vecRows.Close()
	}

	return batches, nil
}

// LoadSampleTexts returns the voice sample texts (contrast batches excluded)
// for an identity in insertion order, for profile re-extraction.
func (s *Store) LoadSampleTexts(identity string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT s.text
		FROM samples s
		JOIN sample_batches b ON b.seq = s.batch_seq
		WHERE b.identity = ? AND b.category = ''
		ORDER BY b.seq, s.position`, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample texts: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan sample text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample texts: %w", err)
	}
	return texts, nil
}

// AppendEvents appends feedback events to the log in order. The log is
// append-only; rows are never updated or reordered.
func (s *Store) AppendEvents(identity string, events []signature.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEventsTx(tx, identity, events); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEventsTx(tx *sql.Tx, identity string, events []signature.Event) error {
	stmt, err := tx.Prepare(
		"INSERT INTO feedback_log (identity, event_id, kind, embedding, accepted, weight, at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		accepted := 0
		if ev.Accepted {
			accepted = 1
		}
		if _, err := stmt.Exec(identity, ev.ID, ev.Kind, serializeEmbedding(ev.Embedding), accepted, ev.Weight, ev.At); err != nil {
			return fmt.Errorf("failed to append event %s: %w", ev.ID, err)
		}
	}
	return nil
}

// LoadEvents returns the feedback log for an identity in append order.
func (s *Store) LoadEvents(identity string) ([]signature.Event, error) {
	rows, err := s.db.Query(`
		SELECT event_id, kind, embedding, accepted, weight, at
		FROM feedback_log WHERE identity = ? ORDER BY seq`, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback log: %w", err)
	}
	defer rows.Close()

	var events []signature.Event
	for rows.Next() {
		var ev signature.Event
		var blob []byte
		var accepted int
		if err := rows.Scan(&ev.ID, &ev.Kind, &blob, &accepted, &ev.Weight, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Embedding = deserializeEmbedding(blob)
		ev.Accepted = accepted != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback log: %w", err)
	}
	return events, nil
}

// DeleteVoice removes an identity and all of its samples, contrast anchors
// and feedback history.
func (s *Store) DeleteVoice(identity string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteVoiceTx(tx, identity); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteVoiceTx(tx *sql.Tx, identity string) error {
	if _, err := tx.Exec(
		"DELETE FROM samples WHERE batch_seq IN (SELECT seq FROM sample_batches WHERE identity = ?)", identity); err != nil {
		return fmt.Errorf("failed to delete samples: %w", err)
	}
	for _, table := range []string{"sample_batches", "contrast_vectors", "feedback_log", "voices"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE identity = ?", identity); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return nil
}

// ListVoices returns all stored identities in alphabetical order.
func (s *Store) ListVoices() ([]string, error) {
	rows, err := s.db.Query("SELECT identity FROM voices ORDER BY identity")
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating voices: %w", err)
	}
	return identities, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// serializeEmbedding converts a float32 slice to bytes for storage.
// Uses little-endian IEEE 754 format (4 bytes per float).
func serializeEmbedding(embedding []float32) []byte {
	if embedding == nil {
		return nil
	}
	blob := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		bits := math.Float32bits(v)
		blob[i*4] = byte(bits)
		blob[i*4+1] = byte(bits >> 8)
		blob[i*4+2] = byte(bits >> 16)
		blob[i*4+3] = byte(bits >> 24)
	}
	return blob
}

// deserializeEmbedding converts bytes back to a float32 slice.
func deserializeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(blob)/4)
	for i := range embedding {
		bits := uint32(blob[i*4]) |
			uint32(blob[i*4+1])<<8 |
			uint32(blob[i*4+2])<<16 |
			uint32(blob[i*4+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}
