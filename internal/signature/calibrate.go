package signature

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/voiceprint/internal/embed"
)

// ApplyFeedback records a binary feedback event and applies it: accepted
// text pulls the primary vector toward its embedding, rejected text pushes
// away, both by the learning-rate step followed by renormalization.
//
// The threshold adapts to decision mistakes: an accepted text that scored
// within borderlineMargin below the threshold lowers it one step (bounded by
// the floor); a rejected text that scored at or above the threshold raises
// it one step (bounded by the ceiling). Negative feedback also decays
// confidence by one percent.
func (s *Signature) ApplyFeedback(vec []float32, accepted bool, at time.Time) (Event, error) {
	if s.Primary == nil {
		return Event{}, fmt.Errorf("signature: %q has no primary vector", s.Identity)
	}
	if len(vec) != s.Dim {
		return Event{}, fmt.Errorf("signature: embedding dimension %d does not match signature dimension %d", len(vec), s.Dim)
	}

	ev := Event{
		ID:        uuid.NewString(),
		Kind:      KindFeedback,
		Embedding: append([]float32(nil), vec...),
		Accepted:  accepted,
		Weight:    1,
		At:        at.UTC(),
	}

	// Log before mutate: the log is the source of truth for replay.
	s.Log = append(s.Log, ev)
	s.applyEvent(ev)
	s.UpdatedAt = time.Now().UTC()
	return ev, nil
}

// ApplyRanking converts a best-to-worst ranking into pairwise vector events:
// for each pair the higher-ranked embedding pulls and the lower-ranked
// pushes, with step size scaled by the normalized rank gap. Ranking events
// never move the threshold or confidence.
func (s *Signature) ApplyRanking(vecs [][]float32, at time.Time) ([]Event, error) {
	if s.Primary == nil {
		return nil, fmt.Errorf("signature: %q has no primary vector", s.Identity)
	}
	if len(vecs) < 2 {
		return nil, fmt.Errorf("signature: ranking needs at least two texts, got %d", len(vecs))
	}
	for _, v := range vecs {
		if len(v) != s.Dim {
			return nil, fmt.Errorf("signature: embedding dimension %d does not match signature dimension %d", len(v), s.Dim)
		}
	}

	n := len(vecs)
	at = at.UTC()
	var events []Event
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			gap := float64(j-i) / float64(n-1)
			events = append(events,
				Event{ID: uuid.NewString(), Kind: KindRanking, Embedding: append([]float32(nil), vecs[i]...), Accepted: true, Weight: gap, At: at},
				Event{ID: uuid.NewString(), Kind: KindRanking, Embedding: append([]float32(nil), vecs[j]...), Accepted: false, Weight: gap, At: at},
			)
		}
	}

	for _, ev := range events {
		s.Log = append(s.Log, ev)
		s.applyEvent(ev)
	}
	s.UpdatedAt = time.Now().UTC()
	return events, nil
}

// applyEvent performs the mutation a log entry stands for. Replay calls this
// with stored events; the live paths call it with freshly minted ones. Any
// state the mutation depends on (similarity against the current primary,
// current threshold) is derived here so both paths agree.
func (s *Signature) applyEvent(ev Event) {
	sim := float64(embed.CosineSimilarity(s.Primary, ev.Embedding))
	step := float32(learnRate * ev.Weight)

	next := make([]float32, len(s.Primary))
	for i := range s.Primary {
		delta := ev.Embedding[i] - s.Primary[i]
		if ev.Accepted {
			next[i] = s.Primary[i] + step*delta
		} else {
			next[i] = s.Primary[i] - step*delta
		}
	}
	if unit := embed.Normalize(next); unit != nil {
		s.Primary = unit
	}

	if ev.Kind != KindFeedback {
		return
	}
	if ev.Accepted {
		s.Positive++
		if sim < s.Threshold && s.Threshold-sim <= borderlineMargin {
			s.Threshold = math.Max(thresholdFloor, s.Threshold-thresholdStep)
		}
		if s.Positive+s.Negative > minFeedbackForBoost {
			s.Confidence = math.Min(confidenceCap, s.Confidence+0.01)
		}
	} else {
		s.Negative++
		if sim >= s.Threshold {
			s.Threshold = math.Min(thresholdCeiling, s.Threshold+thresholdStep)
		}
		s.Confidence *= 0.99
	}
}

// Batch is one historical ingestion unit: either a voice-sample batch
// (Category empty) or a contrast batch. Replay must see the same batch
// grouping the live path used, since pooling renormalizes per batch.
type Batch struct {
	Category string
	Vectors  [][]float32
	Words    int
}

// Replay reconstructs a signature from its inputs: the original sample and
// contrast batches in ingestion order, then the feedback log in append
// order. The result matches the live-incrementally-updated signature within
// floating-point tolerance.
func Replay(identity string, batches []Batch, log []Event) (*Signature, error) {
	s := New(identity)
	for i, b := range batches {
		var err error
		if b.Category == "" {
			err = s.Ingest(b.Vectors, b.Words)
		} else {
			err = s.AddContrast(b.Category, b.Vectors)
		}
		if err != nil {
			return nil, fmt.Errorf("signature: replay batch %d: %w", i, err)
		}
	}
	for i, ev := range log {
		if s.Primary == nil {
			return nil, fmt.Errorf("signature: replay event %d before any sample batch", i)
		}
		if len(ev.Embedding) != s.Dim {
			return nil, fmt.Errorf("signature: replay event %d has dimension %d, want %d", i, len(ev.Embedding), s.Dim)
		}
		s.Log = append(s.Log, ev)
		s.applyEvent(ev)
	}
	return s, nil
}
