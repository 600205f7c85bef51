// Package voice is the scoring facade: it composes the style extractor, the
// pattern matcher, the embedding backends and the signature calibrator into
// per-identity operations.
//
// # Concurrency
//
// Writers (SetupVoice, ExtractProfile, AddSamples, AddContrast, Feedback,
// CompareRanked, Rebuild, Reset) are serialized per identity through a lock
// map that outlives individual voice states, so create and delete are
// ordered against every other mutation. Readers (Evaluate, ScanPatterns,
// accessors) run concurrently against the last committed snapshot and never
// block writers except during the atomic pointer swap. Every mutation works
// on a clone, persists in a single store transaction, and commits only after
// persistence succeeds, so a failed call leaves the prior state untouched.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/voiceprint/internal/embed"
	"github.com/abelbrown/voiceprint/internal/logging"
	"github.com/abelbrown/voiceprint/internal/patterns"
	"github.com/abelbrown/voiceprint/internal/signature"
	"github.com/abelbrown/voiceprint/internal/store"
	"github.com/abelbrown/voiceprint/internal/style"
	"github.com/abelbrown/voiceprint/internal/textseg"
)

// embedConcurrency bounds parallel chunk embedding for non-batch backends.
const embedConcurrency = 4

// EvaluationResult is the outcome of scoring one text against one identity.
type EvaluationResult struct {
	Identity        string                             `json:"identity"`
	Similarity      float64                            `json:"similarity"`
	SoundsLikeMe    bool                               `json:"sounds_like_me"`
	Threshold       float64                            `json:"threshold"`
	Confidence      float64                            `json:"confidence"`
	ContrastScores  map[string]float64                 `json:"contrast_scores"`
	PatternDensity  float64                            `json:"pattern_density"`
	MatchedPatterns map[patterns.Category][]patterns.Match `json:"matched_patterns"`
	WordCount       int                                `json:"word_count"`
}

// Manager holds per-identity voice state and dispatches all operations.
type Manager struct {
	embedder embed.Embedder
	catalog  *patterns.Catalog
	store    *store.Store // optional write-through persistence

	mu     sync.Mutex
	voices map[string]*voiceState
	locks  map[string]*sync.Mutex
}

// voiceState is one identity's live state. sig and profile are swapped
// atomically on commit; samples backs profile re-extraction and is only
// touched under the identity lock.
type voiceState struct {
	sig     atomic.Pointer[signature.Signature]
	profile atomic.Pointer[style.Profile]
	samples []string
}

func newVoiceState(sig *signature.Signature, profile *style.Profile, samples []string) *voiceState {
	st := &voiceState{samples: samples}
	st.sig.Store(sig)
	if profile != nil {
		st.profile.Store(profile)
	}
	return st
}

// NewManager creates a facade around the given embedder. st may be nil for
// an in-memory-only manager.
func NewManager(embedder embed.Embedder, st *store.Store) *Manager {
	return &Manager{
		embedder: embedder,
		catalog:  patterns.NewCatalog(),
		store:    st,
		voices:   map[string]*voiceState{},
		locks:    map[string]*sync.Mutex{},
	}
}

// lockIdentity serializes mutations per identity. The lock entry outlives
// the voice state, so SetupVoice and Reset order against in-flight writers
// instead of racing them across a state swap. Returns the unlock func.
func (m *Manager) lockIdentity(identity string) func() {
	m.mu.Lock()
	l, ok := m.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		m.locks[identity] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// lookup returns the live state for identity, loading it from the store on
// first access. Unknown identities return ErrUnknownIdentity.
func (m *Manager) lookup(identity string) (*voiceState, error) {
	m.mu.Lock()
	st, ok := m.voices[identity]
	m.mu.Unlock()
	if ok {
		return st, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
	}

	sig, profile, err := m.store.LoadVoice(identity)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
	}
	if err != nil {
		return nil, err
	}
	samples, err := m.store.LoadSampleTexts(identity)
	if err != nil {
		return nil, err
	}

	st = newVoiceState(sig, profile, samples)
	m.mu.Lock()
	if existing, ok := m.voices[identity]; ok {
		st = existing
	} else {
		m.voices[identity] = st
	}
	m.mu.Unlock()
	return st, nil
}

// SetupVoice creates (or explicitly replaces) an identity from its initial
// samples, optionally with named contrast sample sets. Returns a snapshot of
// the new signature.
func (m *Manager) SetupVoice(ctx context.Context, identity string, samples []string, contrast map[string][]string) (*signature.Signature, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: empty identity", ErrInsufficientData)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: setup needs at least one sample", ErrInsufficientData)
	}
	defer m.lockIdentity(identity)()

	vecs, words, err := m.embedSamples(ctx, samples)
	if err != nil {
		return nil, err
	}

	sig := signature.New(identity)
	if err := sig.Ingest(vecs, words); err != nil {
		return nil, err
	}
	profile := style.Extract(identity, samples, nil)

	// Deterministic contrast ordering so setup and replay batch sequences
	// agree.
	categories := make([]string, 0, len(contrast))
	for category := range contrast {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	batches := []store.SampleBatch{{Texts: samples, Vectors: vecs, Words: words}}
	for _, category := range categories {
		texts := contrast[category]
		if len(texts) == 0 {
			continue
		}
		cvecs, _, err := m.embedSamples(ctx, texts)
		if err != nil {
			return nil, err
		}
		if err := sig.AddContrast(category, cvecs); err != nil {
			return nil, err
		}
		batches = append(batches, store.SampleBatch{Category: category, Texts: texts, Vectors: cvecs})
	}

	if m.store != nil {
		if err := m.store.ReplaceVoice(sig, profile, batches); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.voices[identity] = newVoiceState(sig, profile, append([]string(nil), samples...))
	m.mu.Unlock()

	logging.Info("voice created", "identity", identity, "samples", len(samples), "words", words, "contrasts", len(batches)-1)
	return sig.Clone(), nil
}

// ExtractProfile computes a style profile from exactly the given samples,
// with optional per-sample emphasis weights, and stores it as the identity's
// current profile. The identity is created if it does not exist. The
// signature's sample corpus is untouched: AddSamples keeps re-extracting
// over everything ingested, independent of any explicit extraction here.
func (m *Manager) ExtractProfile(identity string, samples []string, weights []float64) (*style.Profile, error) {
	totalWords := 0
	for _, s := range samples {
		totalWords += textseg.WordCount(s)
	}
	if totalWords == 0 {
		return nil, fmt.Errorf("%w: no words in samples for %q", ErrInsufficientData, identity)
	}
	defer m.lockIdentity(identity)()

	profile := style.Extract(identity, samples, weights)

	st, err := m.lookup(identity)
	if err != nil {
		if !errors.Is(err, ErrUnknownIdentity) {
			return nil, err
		}
		st = newVoiceState(signature.New(identity), nil, nil)
		m.mu.Lock()
		m.voices[identity] = st
		m.mu.Unlock()
	}

	if m.store != nil {
		if err := m.store.SaveVoice(st.sig.Load(), profile); err != nil {
			return nil, err
		}
	}
	st.profile.Store(profile)
	return profile, nil
}

// AddSamples extends an identity's signature and re-extracts the profile
// over the full accumulated sample set.
func (m *Manager) AddSamples(ctx context.Context, identity string, samples []string) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no samples to add", ErrInsufficientData)
	}
	defer m.lockIdentity(identity)()
	st, err := m.lookup(identity)
	if err != nil {
		return err
	}

	vecs, words, err := m.embedSamples(ctx, samples)
	if err != nil {
		return err
	}

	clone := st.sig.Load().Clone()
	if err := clone.Ingest(vecs, words); err != nil {
		return err
	}
	all := append(append([]string(nil), st.samples...), samples...)
	profile := style.Extract(identity, all, nil)

	if m.store != nil {
		batch := store.SampleBatch{Texts: samples, Vectors: vecs, Words: words}
		if err := m.store.SaveVoiceWithBatch(clone, profile, batch); err != nil {
			return err
		}
	}

	st.samples = all
	st.sig.Store(clone)
	st.profile.Store(profile)
	logging.Info("samples added", "identity", identity, "samples", len(samples), "words", words)
	return nil
}

// AddContrast extends one named contrast anchor with new samples. Contrast
// samples never touch the primary vector or the style profile.
func (m *Manager) AddContrast(ctx context.Context, identity, category string, samples []string) error {
	if category == "" || len(samples) == 0 {
		return fmt.Errorf("%w: contrast needs a category and samples", ErrInsufficientData)
	}
	defer m.lockIdentity(identity)()
	st, err := m.lookup(identity)
	if err != nil {
		return err
	}

	vecs, _, err := m.embedSamples(ctx, samples)
	if err != nil {
		return err
	}

	clone := st.sig.Load().Clone()
	if err := clone.AddContrast(category, vecs); err != nil {
		return err
	}

	if m.store != nil {
		batch := store.SampleBatch{Category: category, Texts: samples, Vectors: vecs}
		if err := m.store.SaveVoiceWithBatch(clone, st.profile.Load(), batch); err != nil {
			return err
		}
	}

	st.sig.Store(clone)
	logging.Info("contrast added", "identity", identity, "category", category, "samples", len(samples))
	return nil
}

// Feedback applies one binary feedback event: accepted text pulls the
// signature toward it, rejected text pushes away, and the threshold adapts
// to borderline mistakes.
func (m *Manager) Feedback(ctx context.Context, identity, text string, accepted bool) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty feedback text", ErrInvalidFeedback)
	}
	defer m.lockIdentity(identity)()
	st, err := m.lookup(identity)
	if err != nil {
		return err
	}

	cur := st.sig.Load()
	if cur.Primary == nil {
		return fmt.Errorf("%w: %q has no samples yet", ErrInsufficientData, identity)
	}

	vec, err := m.embedText(ctx, text)
	if err != nil {
		return err
	}

	clone := cur.Clone()
	ev, err := clone.ApplyFeedback(vec, accepted, time.Now())
	if err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.SaveVoiceWithEvents(clone, st.profile.Load(), []signature.Event{ev}); err != nil {
			return err
		}
	}

	st.sig.Store(clone)
	logging.Debug("feedback applied", "identity", identity, "accepted", accepted, "threshold", clone.Threshold)
	return nil
}

// CompareRanked applies ranking feedback: texts are given best-first, and
// each pair becomes a pull on the higher-ranked and a push on the
// lower-ranked embedding, scaled by the rank gap.
func (m *Manager) CompareRanked(ctx context.Context, identity string, texts []string) error {
	if len(texts) < 2 {
		return fmt.Errorf("%w: ranking needs at least two texts, got %d", ErrInvalidFeedback, len(texts))
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: ranked text %d is empty", ErrInvalidFeedback, i+1)
		}
	}
	defer m.lockIdentity(identity)()
	st, err := m.lookup(identity)
	if err != nil {
		return err
	}

	cur := st.sig.Load()
	if cur.Primary == nil {
		return fmt.Errorf("%w: %q has no samples yet", ErrInsufficientData, identity)
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if vecs[i], err = m.embedText(ctx, text); err != nil {
			return err
		}
	}

	clone := cur.Clone()
	events, err := clone.ApplyRanking(vecs, time.Now())
	if err != nil {
		return err
	}

	if m.store != nil {
		if err := m.store.SaveVoiceWithEvents(clone, st.profile.Load(), events); err != nil {
			return err
		}
	}

	st.sig.Store(clone)
	logging.Debug("ranking applied", "identity", identity, "texts", len(texts), "events", len(events))
	return nil
}

// Evaluate scores text against an identity: embedding similarity and
// contrast scores from the last committed signature, plus a pattern scan.
// Read-only; never mutates signature or profile.
func (m *Manager) Evaluate(ctx context.Context, identity, text string) (*EvaluationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidFeedback)
	}
	st, err := m.lookup(identity)
	if err != nil {
		return nil, err
	}
	sig := st.sig.Load()
	if sig.Primary == nil {
		return nil, fmt.Errorf("%w: %q has no samples yet", ErrInsufficientData, identity)
	}

	vec, err := m.embedText(ctx, text)
	if err != nil {
		return nil, err
	}

	similarity, contrasts := sig.Compare(vec)
	scan := m.catalog.Scan(text)

	return &EvaluationResult{
		Identity:        identity,
		Similarity:      similarity,
		SoundsLikeMe:    sig.SoundsLike(similarity),
		Threshold:       sig.Threshold,
		Confidence:      sig.Confidence,
		ContrastScores:  contrasts,
		PatternDensity:  scan.Density,
		MatchedPatterns: scan.Matches,
		WordCount:       scan.WordCount,
	}, nil
}

// ScanPatterns scores text against the pattern catalog without an identity.
func (m *Manager) ScanPatterns(text string) patterns.Result {
	return m.catalog.Scan(text)
}

// AddPattern appends a custom pattern to the catalog overlay.
func (m *Manager) AddPattern(entry patterns.Entry) error {
	return m.catalog.AddCustom(entry)
}

// Constraints returns the identity's structured generation directive.
func (m *Manager) Constraints(identity string) (style.Constraints, error) {
	st, err := m.lookup(identity)
	if err != nil {
		return style.Constraints{}, err
	}
	profile := st.profile.Load()
	if profile == nil {
		return style.Constraints{}, fmt.Errorf("%w: %q has no profile yet", ErrInsufficientData, identity)
	}
	return profile.Constraints, nil
}

// RenderConstraints renders the identity's generation directive as text,
// with the signature's calibration state appended when samples exist.
func (m *Manager) RenderConstraints(identity string) (string, error) {
	st, err := m.lookup(identity)
	if err != nil {
		return "", err
	}
	profile := st.profile.Load()
	if profile == nil {
		return "", fmt.Errorf("%w: %q has no profile yet", ErrInsufficientData, identity)
	}

	var b strings.Builder
	b.WriteString(profile.Constraints.Render())
	b.WriteString("\n\nSTYLE: ")
	b.WriteString(profile.Describe())

	sig := st.sig.Load()
	if sig.Primary != nil {
		fmt.Fprintf(&b, "\nSIGNATURE: %d samples, %d words, similarity threshold %.2f, confidence %.2f",
			sig.SampleCount, sig.TotalWords, sig.Threshold, sig.Confidence)
	}
	return b.String(), nil
}

// Profile returns a snapshot of the identity's current style profile, or
// nil if none was extracted yet.
func (m *Manager) Profile(identity string) (*style.Profile, error) {
	st, err := m.lookup(identity)
	if err != nil {
		return nil, err
	}
	return st.profile.Load(), nil
}

// Signature returns a snapshot clone of the identity's current signature.
func (m *Manager) Signature(identity string) (*signature.Signature, error) {
	st, err := m.lookup(identity)
	if err != nil {
		return nil, err
	}
	return st.sig.Load().Clone(), nil
}

// Rebuild reconstructs the signature by replaying the stored sample batches
// and feedback log, replacing the live state with the result.
func (m *Manager) Rebuild(ctx context.Context, identity string) error {
	if m.store == nil {
		return fmt.Errorf("voice: rebuild requires a store")
	}
	defer m.lockIdentity(identity)()
	st, err := m.lookup(identity)
	if err != nil {
		return err
	}

	batches, err := m.store.LoadBatches(identity)
	if err != nil {
		return err
	}
	events, err := m.store.LoadEvents(identity)
	if err != nil {
		return err
	}
	rebuilt, err := signature.Replay(identity, batches, events)
	if err != nil {
		return err
	}

	if err := m.store.SaveVoice(rebuilt, st.profile.Load()); err != nil {
		return err
	}
	st.sig.Store(rebuilt)
	logging.Info("voice rebuilt", "identity", identity, "batches", len(batches), "events", len(events))
	return nil
}

// Reset deletes an identity and all of its stored state.
func (m *Manager) Reset(identity string) error {
	defer m.lockIdentity(identity)()

	m.mu.Lock()
	delete(m.voices, identity)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeleteVoice(identity); err != nil {
			return err
		}
	}
	logging.Info("voice reset", "identity", identity)
	return nil
}

// ListVoices returns the known identities: in-memory ones plus, when a
// store is attached, everything persisted.
func (m *Manager) ListVoices() ([]string, error) {
	seen := map[string]bool{}
	m.mu.Lock()
	for id := range m.voices {
		seen[id] = true
	}
	m.mu.Unlock()

	if m.store != nil {
		stored, err := m.store.ListVoices()
		if err != nil {
			return nil, err
		}
		for _, id := range stored {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// embedText embeds one candidate text: chunked, embedded, mean-pooled by
// chunk word count.
func (m *Manager) embedText(ctx context.Context, text string) ([]float32, error) {
	vecs, _, err := m.embedSamples(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// embedSamples produces one pooled vector per sample plus the total word
// count. Long samples are chunked and their chunk embeddings mean-pooled
// weighted by chunk word count. Backend failures map to
// ErrEmbeddingUnavailable.
func (m *Manager) embedSamples(ctx context.Context, samples []string) ([][]float32, int, error) {
	type chunkRef struct {
		sample int
		words  float64
	}
	var flat []string
	var refs []chunkRef
	totalWords := 0
	for i, sample := range samples {
		words := textseg.WordCount(sample)
		if words == 0 {
			return nil, 0, fmt.Errorf("%w: sample %d has no words", ErrInsufficientData, i+1)
		}
		totalWords += words
		for _, chunk := range textseg.Chunk(sample, 0) {
			flat = append(flat, chunk)
			refs = append(refs, chunkRef{i, float64(textseg.WordCount(chunk))})
		}
	}
	if m.embedder == nil {
		return nil, 0, fmt.Errorf("%w: no embedder configured", ErrEmbeddingUnavailable)
	}

	var chunkVecs [][]float32
	var err error
	if batcher, ok := m.embedder.(embed.BatchEmbedder); ok {
		chunkVecs, err = batcher.EmbedBatch(ctx, flat)
	} else {
		chunkVecs = make([][]float32, len(flat))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(embedConcurrency)
		for i, chunk := range flat {
			g.Go(func() error {
				vec, embedErr := m.embedder.Embed(gctx, chunk)
				if embedErr != nil {
					return embedErr
				}
				chunkVecs[i] = vec
				return nil
			})
		}
		err = g.Wait()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	perSample := make([][][]float32, len(samples))
	perWeights := make([][]float64, len(samples))
	for k, ref := range refs {
		perSample[ref.sample] = append(perSample[ref.sample], chunkVecs[k])
		perWeights[ref.sample] = append(perWeights[ref.sample], ref.words)
	}

	out := make([][]float32, len(samples))
	for i := range samples {
		pooled := embed.MeanPool(perSample[i], perWeights[i])
		if pooled == nil {
			return nil, 0, fmt.Errorf("%w: degenerate embedding for sample %d", ErrEmbeddingUnavailable, i+1)
		}
		out[i] = pooled
	}
	return out, totalWords, nil
}
