// Package signature maintains per-identity voice signatures: a unit-norm
// primary embedding, contrastive anchor vectors, and a feedback-calibrated
// similarity threshold.
//
// Every mutation is a convex combination with prior state, never an
// overwrite, so no single ingestion or feedback event can destroy the
// accumulated signal. Feedback is recorded in an append-only event log
// before it is applied; replaying the log over the original sample batches
// reproduces the live signature.
package signature

import (
	"fmt"
	"math"
	"time"

	"github.com/abelbrown/voiceprint/internal/embed"
)

const (
	// defaultThreshold is the initial "sounds like me" similarity cutoff.
	// Calibrated only by feedback, bounded to [thresholdFloor, thresholdCeiling].
	defaultThreshold = 0.70
	thresholdFloor   = 0.30
	thresholdCeiling = 0.95
	thresholdStep    = 0.02

	// borderlineMargin bounds how far below the threshold an accepted text
	// may sit and still pull the threshold down. Far misses move the vector
	// only.
	borderlineMargin = 0.10

	// learnRate is the per-event step size for feedback pulls and pushes.
	learnRate = 0.02

	// confidenceSaturationWords is the sample volume at which evidence-based
	// confidence saturates; confidenceCap bounds all confidence growth.
	confidenceSaturationWords = 50000
	confidenceCap             = 0.98

	// minFeedbackForBoost is how many feedback events must accumulate before
	// each further positive event adds confidence.
	minFeedbackForBoost = 5
)

// Event kinds. Ranking events adjust the vector only; feedback events also
// move the threshold and confidence.
const (
	KindFeedback = "feedback"
	KindRanking  = "ranking"
)

// Event is one append-only feedback log entry.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Embedding []float32 `json:"embedding"`
	Accepted  bool      `json:"accepted"`
	Weight    float64   `json:"weight"`
	At        time.Time `json:"at"`
}

// Signature is the evolving embedding-space representation of one identity's
// voice.
type Signature struct {
	Identity string `json:"identity"`

	// Primary is the unit-norm voice vector; nil until the first ingestion.
	Primary []float32 `json:"primary"`
	Dim     int       `json:"dim"`

	SampleCount int `json:"sample_count"`
	TotalWords  int `json:"total_words"`

	// Contrast holds unit-norm "not this voice" anchors by category name,
	// pooled independently and never merged into Primary. ContrastCounts
	// tracks how many samples back each anchor.
	Contrast       map[string][]float32 `json:"contrast"`
	ContrastCounts map[string]int       `json:"contrast_counts"`

	Threshold  float64 `json:"threshold"`
	Confidence float64 `json:"confidence"`

	Positive int `json:"positive"`
	Negative int `json:"negative"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Log is append-only; entries are written before they are applied.
	Log []Event `json:"log"`
}

// New returns an empty signature for identity with the default threshold.
func New(identity string) *Signature {
	now := time.Now().UTC()
	return &Signature{
		Identity:       identity,
		Contrast:       map[string][]float32{},
		ContrastCounts: map[string]int{},
		Threshold:      defaultThreshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Ingest folds a batch of sample embeddings into the primary vector.
//
// The batch is mean-pooled and renormalized, then combined with the existing
// primary by a convex combination weighted words/(words+priorWords), so a
// handful of new samples cannot swamp accumulated evidence. Confidence grows
// with total word volume and is never decreased by ingestion.
func (s *Signature) Ingest(vecs [][]float32, words int) error {
	pooled := embed.MeanPool(vecs, nil)
	if pooled == nil {
		return fmt.Errorf("signature: no usable embeddings in batch")
	}
	if err := s.checkDim(pooled); err != nil {
		return err
	}

	if s.Primary == nil {
		s.Primary = pooled
		s.Dim = len(pooled)
	} else {
		prior := float64(s.TotalWords)
		fresh := float64(words)
		if fresh <= 0 {
			fresh = 1
		}
		combined := embed.MeanPool([][]float32{s.Primary, pooled}, []float64{prior, fresh})
		if combined == nil {
			return fmt.Errorf("signature: degenerate combination for %q", s.Identity)
		}
		s.Primary = combined
	}

	s.SampleCount += len(vecs)
	s.TotalWords += words
	if c := evidenceConfidence(s.TotalWords); c > s.Confidence {
		s.Confidence = c
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// AddContrast folds a batch of embeddings into the named contrast anchor.
// Pooling is independent per category; anchors never touch Primary.
func (s *Signature) AddContrast(category string, vecs [][]float32) error {
	if category == "" {
		return fmt.Errorf("signature: empty contrast category")
	}
	pooled := embed.MeanPool(vecs, nil)
	if pooled == nil {
		return fmt.Errorf("signature: no usable embeddings for contrast %q", category)
	}
	if err := s.checkDim(pooled); err != nil {
		return err
	}

	if existing, ok := s.Contrast[category]; ok {
		combined := embed.MeanPool(
			[][]float32{existing, pooled},
			[]float64{float64(s.ContrastCounts[category]), float64(len(vecs))},
		)
		if combined == nil {
			return fmt.Errorf("signature: degenerate contrast combination for %q", category)
		}
		s.Contrast[category] = combined
	} else {
		s.Contrast[category] = pooled
		if s.Dim == 0 {
			s.Dim = len(pooled)
		}
	}
	s.ContrastCounts[category] += len(vecs)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Compare scores a candidate embedding against the primary vector and every
// contrast anchor. A higher contrast score means more resemblance to what
// the voice is not.
func (s *Signature) Compare(vec []float32) (similarity float64, contrasts map[string]float64) {
	similarity = float64(embed.CosineSimilarity(s.Primary, vec))
	contrasts = make(map[string]float64, len(s.Contrast))
	for category, anchor := range s.Contrast {
		contrasts[category] = float64(embed.CosineSimilarity(anchor, vec))
	}
	return similarity, contrasts
}

// SoundsLike applies the decision rule against the current threshold.
func (s *Signature) SoundsLike(similarity float64) bool {
	return similarity >= s.Threshold
}

// Clone returns a deep copy. Mutating callers work on a clone and swap it in
// on success so a failed update leaves the committed signature untouched.
func (s *Signature) Clone() *Signature {
	c := *s
	c.Primary = append([]float32(nil), s.Primary...)
	c.Contrast = make(map[string][]float32, len(s.Contrast))
	for k, v := range s.Contrast {
		c.Contrast[k] = append([]float32(nil), v...)
	}
	c.ContrastCounts = make(map[string]int, len(s.ContrastCounts))
	for k, v := range s.ContrastCounts {
		c.ContrastCounts[k] = v
	}
	c.Log = make([]Event, len(s.Log))
	for i, ev := range s.Log {
		c.Log[i] = ev
		c.Log[i].Embedding = append([]float32(nil), ev.Embedding...)
	}
	return &c
}

func (s *Signature) checkDim(vec []float32) error {
	if s.Dim != 0 && len(vec) != s.Dim {
		return fmt.Errorf("signature: embedding dimension %d does not match signature dimension %d", len(vec), s.Dim)
	}
	return nil
}

// evidenceConfidence maps accumulated word volume into [0, confidenceCap]
// with logarithmic saturation.
func evidenceConfidence(totalWords int) float64 {
	if totalWords <= 0 {
		return 0
	}
	c := math.Log1p(float64(totalWords)) / math.Log1p(confidenceSaturationWords)
	if c > confidenceCap {
		c = confidenceCap
	}
	return c
}
