package signature

import (
	"math"
	"testing"
	"time"

	"github.com/abelbrown/voiceprint/internal/embed"
)

func unit(xs ...float32) []float32 {
	return embed.Normalize(xs)
}

func cosine(a, b []float32) float64 {
	return float64(embed.CosineSimilarity(a, b))
}

func TestIngestFirstBatch(t *testing.T) {
	s := New("u")
	err := s.Ingest([][]float32{
		unit(1, 0, 0),
		unit(0, 1, 0),
	}, 1200)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if s.Dim != 3 {
		t.Errorf("Dim = %d, want 3", s.Dim)
	}
	if s.SampleCount != 2 || s.TotalWords != 1200 {
		t.Errorf("counts = (%d, %d), want (2, 1200)", s.SampleCount, s.TotalWords)
	}
	var norm float64
	for _, x := range s.Primary {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Errorf("primary norm = %v, want 1", norm)
	}
	if s.Confidence <= 0 || s.Confidence > 0.98 {
		t.Errorf("Confidence = %v, want in (0, 0.98]", s.Confidence)
	}
	if s.Threshold != 0.70 {
		t.Errorf("Threshold = %v, want default 0.70", s.Threshold)
	}
}

func TestIngestConvexCombination(t *testing.T) {
	s := New("u")
	if err := s.Ingest([][]float32{unit(1, 0)}, 100); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := s.Ingest([][]float32{unit(0, 1)}, 100); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Equal word volume: combined vector bisects the two directions.
	want := float32(1 / math.Sqrt2)
	if math.Abs(float64(s.Primary[0]-want)) > 1e-6 || math.Abs(float64(s.Primary[1]-want)) > 1e-6 {
		t.Errorf("Primary = %v, want [%v %v]", s.Primary, want, want)
	}
}

func TestIngestPriorEvidenceDominates(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 10000)
	s.Ingest([][]float32{unit(0, 1)}, 100)

	// 10000 prior words vs 100 new: primary stays near the original axis.
	if sim := cosine(s.Primary, unit(1, 0)); sim < 0.99 {
		t.Errorf("primary drifted too far on small batch: sim to prior axis = %v", sim)
	}
}

func TestIngestMonotonicConfidence(t *testing.T) {
	s := New("u")
	prev := s.Confidence
	for i := 0; i < 5; i++ {
		if err := s.Ingest([][]float32{unit(1, float32(i), 0)}, 500); err != nil {
			t.Fatalf("Ingest %d: %v", i, err)
		}
		if s.Confidence < prev {
			t.Errorf("confidence decreased on ingest %d: %v -> %v", i, prev, s.Confidence)
		}
		prev = s.Confidence
	}
	if prev > 0.98 {
		t.Errorf("confidence exceeded cap: %v", prev)
	}
}

func TestIngestErrors(t *testing.T) {
	s := New("u")
	if err := s.Ingest(nil, 100); err == nil {
		t.Errorf("Ingest(nil) should fail")
	}
	if err := s.Ingest([][]float32{unit(1, 0, 0)}, 100); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := s.Ingest([][]float32{unit(1, 0)}, 100); err == nil {
		t.Errorf("Ingest with mismatched dimension should fail")
	}
}

func TestAddContrastIndependent(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0, 0)}, 500)
	before := append([]float32(nil), s.Primary...)

	if err := s.AddContrast("ai_generated", [][]float32{unit(0, 0, 1)}); err != nil {
		t.Fatalf("AddContrast: %v", err)
	}
	for i := range before {
		if s.Primary[i] != before[i] {
			t.Fatalf("AddContrast modified primary vector")
		}
	}

	sim, contrasts := s.Compare(unit(0, 0, 1))
	if math.Abs(sim) > 1e-6 {
		t.Errorf("similarity = %v, want 0", sim)
	}
	if c := contrasts["ai_generated"]; math.Abs(c-1) > 1e-6 {
		t.Errorf("contrast score = %v, want 1", c)
	}
}

func TestAddContrastAccumulates(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)
	s.AddContrast("generic_academic", [][]float32{unit(0, 1)})
	if err := s.AddContrast("generic_academic", [][]float32{unit(0, 1)}); err != nil {
		t.Fatalf("second AddContrast: %v", err)
	}
	if s.ContrastCounts["generic_academic"] != 2 {
		t.Errorf("ContrastCounts = %d, want 2", s.ContrastCounts["generic_academic"])
	}
	if sim := cosine(s.Contrast["generic_academic"], unit(0, 1)); sim < 0.999 {
		t.Errorf("accumulated anchor drifted: sim = %v", sim)
	}
}

func TestFeedbackNegativeDecreasesSimilarity(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0, 0)}, 500)

	far := unit(0, 1, 0)
	before, _ := s.Compare(far)
	if _, err := s.ApplyFeedback(far, false, time.Now()); err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	after, _ := s.Compare(far)

	if after >= before {
		t.Errorf("negative feedback did not decrease similarity: %v -> %v", before, after)
	}
	if s.Negative != 1 {
		t.Errorf("Negative = %d, want 1", s.Negative)
	}
	if len(s.Log) != 1 || s.Log[0].Kind != KindFeedback || s.Log[0].Accepted {
		t.Errorf("log entry wrong: %+v", s.Log)
	}
}

func TestFeedbackPositiveIncreasesSimilarity(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0, 0)}, 500)

	near := unit(0.8, 0.6, 0)
	before, _ := s.Compare(near)
	s.ApplyFeedback(near, true, time.Now())
	after, _ := s.Compare(near)

	if after <= before {
		t.Errorf("positive feedback did not increase similarity: %v -> %v", before, after)
	}
}

func TestThresholdAdaptsToBorderlineAccept(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)

	// sim 0.65 sits within the borderline margin below the 0.70 default.
	borderline := unit(0.65, float32(math.Sqrt(1-0.65*0.65)))
	s.ApplyFeedback(borderline, true, time.Now())
	if math.Abs(s.Threshold-0.68) > 1e-9 {
		t.Errorf("Threshold = %v, want 0.68 after borderline accept", s.Threshold)
	}
}

func TestThresholdIgnoresFarAccept(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)

	// sim 0.3 is far below threshold; the vector moves but the cutoff stays.
	far := unit(0.3, float32(math.Sqrt(1-0.09)))
	s.ApplyFeedback(far, true, time.Now())
	if s.Threshold != 0.70 {
		t.Errorf("Threshold = %v, want unchanged 0.70", s.Threshold)
	}
}

func TestThresholdRaisesOnFalsePositive(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)

	// Rejected text scoring above the threshold pushes the cutoff up.
	near := unit(0.9, float32(math.Sqrt(1-0.81)))
	s.ApplyFeedback(near, false, time.Now())
	if math.Abs(s.Threshold-0.72) > 1e-9 {
		t.Errorf("Threshold = %v, want 0.72", s.Threshold)
	}
}

func TestThresholdBounds(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)

	near := unit(0.99, float32(math.Sqrt(1-0.99*0.99)))
	for i := 0; i < 100; i++ {
		s.ApplyFeedback(near, false, time.Now())
	}
	if s.Threshold > 0.95 {
		t.Errorf("Threshold exceeded ceiling: %v", s.Threshold)
	}

	s2 := New("u2")
	s2.Ingest([][]float32{unit(1, 0)}, 500)
	for i := 0; i < 100; i++ {
		sim := s2.Threshold - 0.05
		if sim < -1 {
			break
		}
		borderline := unit(float32(sim), float32(math.Sqrt(1-sim*sim)))
		s2.ApplyFeedback(borderline, true, time.Now())
	}
	if s2.Threshold < 0.30 {
		t.Errorf("Threshold fell below floor: %v", s2.Threshold)
	}
}

func TestNegativeFeedbackDecaysConfidence(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 5000)
	before := s.Confidence
	s.ApplyFeedback(unit(0, 1), false, time.Now())
	if s.Confidence >= before {
		t.Errorf("confidence did not decay: %v -> %v", before, s.Confidence)
	}
}

func TestConsistentFeedbackBoostsConfidence(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)
	near := unit(0.9, float32(math.Sqrt(1-0.81)))

	for i := 0; i < 5; i++ {
		s.ApplyFeedback(near, true, time.Now())
	}
	before := s.Confidence
	s.ApplyFeedback(near, true, time.Now())
	if s.Confidence <= before {
		t.Errorf("sixth positive event should boost confidence: %v -> %v", before, s.Confidence)
	}
}

func TestRankingPairwise(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0, 0)}, 500)

	a := unit(0.9, 0.435, 0) // closer to the signature
	b := unit(0, 0, 1)       // far from it
	simA, _ := s.Compare(a)
	simB, _ := s.Compare(b)
	thresholdBefore := s.Threshold

	events, err := s.ApplyRanking([][]float32{a, b}, time.Now())
	if err != nil {
		t.Fatalf("ApplyRanking: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 for a pair", len(events))
	}

	afterA, _ := s.Compare(a)
	afterB, _ := s.Compare(b)
	if afterA <= simA {
		t.Errorf("higher-ranked similarity did not increase: %v -> %v", simA, afterA)
	}
	if afterB > simB {
		t.Errorf("lower-ranked similarity increased: %v -> %v", simB, afterB)
	}
	if s.Threshold != thresholdBefore {
		t.Errorf("ranking moved the threshold: %v -> %v", thresholdBefore, s.Threshold)
	}
	for _, ev := range events {
		if ev.Kind != KindRanking {
			t.Errorf("event kind = %q, want %q", ev.Kind, KindRanking)
		}
	}
}

func TestRankingNeedsTwoTexts(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)
	if _, err := s.ApplyRanking([][]float32{unit(1, 0)}, time.Now()); err == nil {
		t.Errorf("single-item ranking accepted")
	}
}

func TestFeedbackBeforeIngest(t *testing.T) {
	s := New("u")
	if _, err := s.ApplyFeedback(unit(1, 0), true, time.Now()); err == nil {
		t.Errorf("feedback before any samples accepted")
	}
}

func TestReplayReproducesLiveSignature(t *testing.T) {
	live := New("u")
	batches := []Batch{
		{Vectors: [][]float32{unit(1, 0, 0), unit(0.9, 0.435, 0)}, Words: 1100},
		{Vectors: [][]float32{unit(0.8, 0.6, 0)}, Words: 600},
		{Category: "ai_generated", Vectors: [][]float32{unit(0, 0, 1)}},
	}
	for _, b := range batches {
		if b.Category == "" {
			if err := live.Ingest(b.Vectors, b.Words); err != nil {
				t.Fatalf("Ingest: %v", err)
			}
		} else if err := live.AddContrast(b.Category, b.Vectors); err != nil {
			t.Fatalf("AddContrast: %v", err)
		}
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live.ApplyFeedback(unit(0.7, 0.7, 0.14), true, at)
	live.ApplyFeedback(unit(0, 1, 0), false, at)
	live.ApplyRanking([][]float32{unit(0.9, 0.4, 0.1), unit(0.1, 0.2, 0.97)}, at)

	replayed, err := Replay("u", batches, live.Log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if dist := 1 - cosine(live.Primary, replayed.Primary); dist > 1e-6 {
		t.Errorf("replayed primary diverged: cosine distance %v", dist)
	}
	if math.Abs(live.Threshold-replayed.Threshold) > 1e-9 {
		t.Errorf("threshold diverged: %v vs %v", live.Threshold, replayed.Threshold)
	}
	if math.Abs(live.Confidence-replayed.Confidence) > 1e-9 {
		t.Errorf("confidence diverged: %v vs %v", live.Confidence, replayed.Confidence)
	}
	if live.Positive != replayed.Positive || live.Negative != replayed.Negative {
		t.Errorf("counters diverged: (%d,%d) vs (%d,%d)",
			live.Positive, live.Negative, replayed.Positive, replayed.Negative)
	}
	if len(live.Log) != len(replayed.Log) {
		t.Errorf("log lengths diverged: %d vs %d", len(live.Log), len(replayed.Log))
	}
	for cat, anchor := range live.Contrast {
		if dist := 1 - cosine(anchor, replayed.Contrast[cat]); dist > 1e-6 {
			t.Errorf("contrast %q diverged: cosine distance %v", cat, dist)
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	s := New("u")
	s.Ingest([][]float32{unit(1, 0)}, 500)
	s.AddContrast("ai_generated", [][]float32{unit(0, 1)})
	s.ApplyFeedback(unit(0.9, float32(math.Sqrt(1-0.81))), true, time.Now())

	c := s.Clone()
	c.Primary[0] = -1
	c.Contrast["ai_generated"][0] = -1
	c.Log[0].Embedding[0] = -1
	c.Threshold = 0.1

	if s.Primary[0] == -1 || s.Contrast["ai_generated"][0] == -1 || s.Log[0].Embedding[0] == -1 {
		t.Errorf("Clone shares backing arrays with the original")
	}
	if s.Threshold == 0.1 {
		t.Errorf("Clone shares scalar state")
	}
}
