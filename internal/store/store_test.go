package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelbrown/voiceprint/internal/embed"
	"github.com/abelbrown/voiceprint/internal/signature"
	"github.com/abelbrown/voiceprint/internal/style"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func unit(xs ...float32) []float32 {
	return embed.Normalize(xs)
}

func TestSaveLoadVoice(t *testing.T) {
	s := newTestStore(t)

	sig := signature.New("alice")
	if err := sig.Ingest([][]float32{unit(1, 0, 0), unit(0.9, 0.435, 0)}, 1200); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := sig.AddContrast("ai_generated", [][]float32{unit(0, 0, 1)}); err != nil {
		t.Fatalf("AddContrast: %v", err)
	}
	profile := style.Extract("alice", []string{"The dam failed at dawn. Water took the lower fields."}, nil)

	if err := s.SaveVoice(sig, profile); err != nil {
		t.Fatalf("SaveVoice: %v", err)
	}

	loaded, loadedProfile, err := s.LoadVoice("alice")
	if err != nil {
		t.Fatalf("LoadVoice: %v", err)
	}

	if loaded.Identity != "alice" || loaded.Dim != 3 {
		t.Errorf("identity/dim = %s/%d, want alice/3", loaded.Identity, loaded.Dim)
	}
	if loaded.SampleCount != sig.SampleCount || loaded.TotalWords != sig.TotalWords {
		t.Errorf("counts = (%d,%d), want (%d,%d)",
			loaded.SampleCount, loaded.TotalWords, sig.SampleCount, sig.TotalWords)
	}
	if loaded.Threshold != sig.Threshold || math.Abs(loaded.Confidence-sig.Confidence) > 1e-9 {
		t.Errorf("threshold/confidence mismatch")
	}
	for i := range sig.Primary {
		if loaded.Primary[i] != sig.Primary[i] {
			t.Fatalf("primary vector changed in round trip at %d: %v vs %v",
				i, loaded.Primary[i], sig.Primary[i])
		}
	}
	anchor := loaded.Contrast["ai_generated"]
	if anchor == nil || loaded.ContrastCounts["ai_generated"] != 1 {
		t.Fatalf("contrast anchor missing after round trip: %v", loaded.Contrast)
	}
	for i := range sig.Contrast["ai_generated"] {
		if anchor[i] != sig.Contrast["ai_generated"][i] {
			t.Errorf("contrast vector changed in round trip")
		}
	}
	if loadedProfile == nil || loadedProfile.Identity != "alice" {
		t.Fatalf("profile missing after round trip: %+v", loadedProfile)
	}
	if loadedProfile.TotalWords != profile.TotalWords {
		t.Errorf("profile TotalWords = %d, want %d", loadedProfile.TotalWords, profile.TotalWords)
	}
}

func TestSaveVoiceUpsert(t *testing.T) {
	s := newTestStore(t)

	sig := signature.New("bob")
	sig.Ingest([][]float32{unit(1, 0)}, 500)
	if err := s.SaveVoice(sig, nil); err != nil {
		t.Fatalf("first SaveVoice: %v", err)
	}

	sig.Ingest([][]float32{unit(0, 1)}, 500)
	if err := s.SaveVoice(sig, nil); err != nil {
		t.Fatalf("second SaveVoice: %v", err)
	}

	loaded, profile, err := s.LoadVoice("bob")
	if err != nil {
		t.Fatalf("LoadVoice: %v", err)
	}
	if loaded.TotalWords != 1000 {
		t.Errorf("TotalWords = %d, want 1000 after upsert", loaded.TotalWords)
	}
	if profile != nil {
		t.Errorf("expected nil profile, got %+v", profile)
	}
}

func TestLoadVoiceNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.LoadVoice("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadVoice(nobody) = %v, want ErrNotFound", err)
	}
}

func TestSampleBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendSampleBatch("alice", "", []string{"first sample", "second sample"},
		[][]float32{unit(1, 0), unit(0, 1)}, 900); err != nil {
		t.Fatalf("AppendSampleBatch: %v", err)
	}
	if err := s.AppendSampleBatch("alice", "ai_generated", []string{"generic text"},
		[][]float32{unit(1, 1)}, 0); err != nil {
		t.Fatalf("AppendSampleBatch contrast: %v", err)
	}

	batches, err := s.LoadBatches("alice")
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Category != "" || batches[0].Words != 900 || len(batches[0].Vectors) != 2 {
		t.Errorf("first batch wrong: %+v", batches[0])
	}
	if batches[1].Category != "ai_generated" || len(batches[1].Vectors) != 1 {
		t.Errorf("second batch wrong: %+v", batches[1])
	}
	want := unit(1, 0)
	for i := range want {
		if batches[0].Vectors[0][i] != want[i] {
			t.Errorf("vector changed in round trip")
		}
	}

	texts, err := s.LoadSampleTexts("alice")
	if err != nil {
		t.Fatalf("LoadSampleTexts: %v", err)
	}
	if len(texts) != 2 || texts[0] != "first sample" || texts[1] != "second sample" {
		t.Errorf("texts = %v, want voice samples only in order", texts)
	}
}

func TestSampleBatchLengthMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendSampleBatch("alice", "", []string{"one"}, [][]float32{unit(1, 0), unit(0, 1)}, 10)
	if err == nil {
		t.Errorf("mismatched texts/embeddings accepted")
	}
}

func TestFeedbackLogAppendOnly(t *testing.T) {
	s := newTestStore(t)

	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	first := []signature.Event{
		{ID: "ev-1", Kind: signature.KindFeedback, Embedding: unit(1, 0), Accepted: true, Weight: 1, At: at},
	}
	second := []signature.Event{
		{ID: "ev-2", Kind: signature.KindRanking, Embedding: unit(0, 1), Accepted: false, Weight: 0.5, At: at},
	}
	if err := s.AppendEvents("alice", first); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := s.AppendEvents("alice", second); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	events, err := s.LoadEvents("alice")
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].ID != "ev-1" || events[1].ID != "ev-2" {
		t.Errorf("event order = %s,%s, want append order", events[0].ID, events[1].ID)
	}
	if !events[0].Accepted || events[0].Kind != signature.KindFeedback {
		t.Errorf("first event fields wrong: %+v", events[0])
	}
	if events[1].Accepted || events[1].Weight != 0.5 {
		t.Errorf("second event fields wrong: %+v", events[1])
	}
	if !events[0].At.Equal(at) {
		t.Errorf("event time = %v, want %v", events[0].At, at)
	}
}

func TestReplayFromStore(t *testing.T) {
	s := newTestStore(t)

	live := signature.New("alice")
	sampleVecs := [][]float32{unit(1, 0, 0), unit(0.9, 0.435, 0)}
	live.Ingest(sampleVecs, 1100)
	s.AppendSampleBatch("alice", "", []string{"a", "b"}, sampleVecs, 1100)

	contrastVecs := [][]float32{unit(0, 0, 1)}
	live.AddContrast("ai_generated", contrastVecs)
	s.AppendSampleBatch("alice", "ai_generated", []string{"c"}, contrastVecs, 0)

	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	ev, err := live.ApplyFeedback(unit(0, 1, 0), false, at)
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	s.AppendEvents("alice", []signature.Event{ev})
	s.SaveVoice(live, nil)

	batches, err := s.LoadBatches("alice")
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	events, err := s.LoadEvents("alice")
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}

	rebuilt, err := signature.Replay("alice", batches, events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if dist := 1 - float64(embed.CosineSimilarity(live.Primary, rebuilt.Primary)); dist > 1e-6 {
		t.Errorf("rebuilt primary diverged: cosine distance %v", dist)
	}
	if math.Abs(live.Threshold-rebuilt.Threshold) > 1e-9 {
		t.Errorf("rebuilt threshold = %v, want %v", rebuilt.Threshold, live.Threshold)
	}
	if rebuilt.Negative != 1 {
		t.Errorf("rebuilt Negative = %d, want 1", rebuilt.Negative)
	}
}

func TestReplaceVoiceSwapsRecord(t *testing.T) {
	s := newTestStore(t)

	old := signature.New("alice")
	old.Ingest([][]float32{unit(1, 0)}, 400)
	s.SaveVoice(old, nil)
	s.AppendSampleBatch("alice", "", []string{"old text"}, [][]float32{unit(1, 0)}, 400)
	s.AppendEvents("alice", []signature.Event{
		{ID: "ev-old", Kind: signature.KindFeedback, Embedding: unit(0, 1), Weight: 1, At: time.Now().UTC()},
	})

	fresh := signature.New("alice")
	fresh.Ingest([][]float32{unit(0, 1)}, 900)
	err := s.ReplaceVoice(fresh, nil, []SampleBatch{
		{Texts: []string{"new text"}, Vectors: [][]float32{unit(0, 1)}, Words: 900},
	})
	if err != nil {
		t.Fatalf("ReplaceVoice: %v", err)
	}

	loaded, _, err := s.LoadVoice("alice")
	if err != nil {
		t.Fatalf("LoadVoice: %v", err)
	}
	if loaded.TotalWords != 900 {
		t.Errorf("TotalWords = %d, want 900 after replace", loaded.TotalWords)
	}
	if len(loaded.Log) != 0 {
		t.Errorf("old events survived replace: %d", len(loaded.Log))
	}
	batches, err := s.LoadBatches("alice")
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if len(batches) != 1 || batches[0].Words != 900 {
		t.Errorf("batches after replace = %+v, want only the new one", batches)
	}
}

func TestReplaceVoiceFailureKeepsPrior(t *testing.T) {
	s := newTestStore(t)

	prior := signature.New("alice")
	prior.Ingest([][]float32{unit(1, 0)}, 400)
	s.SaveVoice(prior, nil)
	s.AppendSampleBatch("alice", "", []string{"prior text"}, [][]float32{unit(1, 0)}, 400)

	fresh := signature.New("alice")
	fresh.Ingest([][]float32{unit(0, 1)}, 900)
	err := s.ReplaceVoice(fresh, nil, []SampleBatch{
		{Texts: []string{"only one"}, Vectors: [][]float32{unit(0, 1), unit(1, 1)}, Words: 900},
	})
	if err == nil {
		t.Fatalf("mismatched batch accepted")
	}

	loaded, _, err := s.LoadVoice("alice")
	if err != nil {
		t.Fatalf("prior voice gone after failed replace: %v", err)
	}
	if loaded.TotalWords != 400 {
		t.Errorf("TotalWords = %d, want prior 400", loaded.TotalWords)
	}
	batches, _ := s.LoadBatches("alice")
	if len(batches) != 1 || len(batches[0].Vectors) != 1 {
		t.Errorf("prior batches changed after failed replace: %+v", batches)
	}
}

func TestSaveVoiceWithEventsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	sig := signature.New("alice")
	sig.Ingest([][]float32{unit(1, 0)}, 600)
	s.SaveVoice(sig, nil)

	ev, err := sig.ApplyFeedback(unit(0, 1), false, time.Now().UTC())
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	if err := s.SaveVoiceWithEvents(sig, nil, []signature.Event{ev}); err != nil {
		t.Fatalf("SaveVoiceWithEvents: %v", err)
	}

	loaded, _, err := s.LoadVoice("alice")
	if err != nil {
		t.Fatalf("LoadVoice: %v", err)
	}
	if loaded.Negative != 1 {
		t.Errorf("Negative = %d, want 1: event and voice committed together", loaded.Negative)
	}
	if len(loaded.Log) != 1 || loaded.Log[0].ID != ev.ID {
		t.Errorf("log after combined save = %+v, want the one event", loaded.Log)
	}
}

func TestSaveVoiceWithBatchFailureKeepsPrior(t *testing.T) {
	s := newTestStore(t)

	sig := signature.New("alice")
	sig.Ingest([][]float32{unit(1, 0)}, 400)
	s.SaveVoice(sig, nil)

	grown := sig.Clone()
	grown.Ingest([][]float32{unit(0, 1)}, 500)
	err := s.SaveVoiceWithBatch(grown, nil, SampleBatch{
		Texts: []string{"one", "two"}, Vectors: [][]float32{unit(0, 1)}, Words: 500,
	})
	if err == nil {
		t.Fatalf("mismatched batch accepted")
	}

	loaded, _, err := s.LoadVoice("alice")
	if err != nil {
		t.Fatalf("LoadVoice: %v", err)
	}
	if loaded.TotalWords != 400 {
		t.Errorf("TotalWords = %d, want prior 400 after failed save", loaded.TotalWords)
	}
	batches, _ := s.LoadBatches("alice")
	if len(batches) != 0 {
		t.Errorf("batch rows written by failed save: %+v", batches)
	}
}

func TestDeleteVoice(t *testing.T) {
	s := newTestStore(t)

	sig := signature.New("carol")
	sig.Ingest([][]float32{unit(1, 0)}, 500)
	s.SaveVoice(sig, nil)
	s.AppendSampleBatch("carol", "", []string{"text"}, [][]float32{unit(1, 0)}, 500)
	s.AppendEvents("carol", []signature.Event{
		{ID: "ev-1", Kind: signature.KindFeedback, Embedding: unit(1, 0), Accepted: true, Weight: 1, At: time.Now().UTC()},
	})

	if err := s.DeleteVoice("carol"); err != nil {
		t.Fatalf("DeleteVoice: %v", err)
	}
	if _, _, err := s.LoadVoice("carol"); !errors.Is(err, ErrNotFound) {
		t.Errorf("voice still loadable after delete: %v", err)
	}
	batches, _ := s.LoadBatches("carol")
	if len(batches) != 0 {
		t.Errorf("batches remain after delete: %d", len(batches))
	}
	events, _ := s.LoadEvents("carol")
	if len(events) != 0 {
		t.Errorf("events remain after delete: %d", len(events))
	}
}

func TestListVoices(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"carol", "alice", "bob"} {
		sig := signature.New(id)
		sig.Ingest([][]float32{unit(1, 0)}, 500)
		if err := s.SaveVoice(sig, nil); err != nil {
			t.Fatalf("SaveVoice(%s): %v", id, err)
		}
	}

	got, err := s.ListVoices()
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("ListVoices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListVoices[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	vecs := [][]float32{
		{0.5, -1.25, 3.75e-3},
		{},
		nil,
	}
	for _, v := range vecs {
		got := deserializeEmbedding(serializeEmbedding(v))
		if len(v) == 0 {
			if got != nil {
				t.Errorf("empty vector round trip = %v, want nil", got)
			}
			continue
		}
		for i := range v {
			if got[i] != v[i] {
				t.Errorf("blob round trip changed value at %d: %v vs %v", i, got[i], v[i])
			}
		}
	}
}
