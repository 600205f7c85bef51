// Package style extracts a statistical writing fingerprint from text samples.
//
// Extraction is a pure function of the samples passed in: every metric is
// recomputed from scratch on each call, so repeated extraction over the same
// samples yields the same Profile. Samples are weighted equally regardless
// of length unless the caller supplies explicit emphasis weights.
package style

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/abelbrown/voiceprint/internal/textseg"
)

// Profile is the extracted style fingerprint for one identity.
type Profile struct {
	Identity    string    `json:"identity"`
	ExtractedAt time.Time `json:"extracted_at"`
	SampleCount int       `json:"sample_count"`
	TotalWords  int       `json:"total_words"`

	// Lexical
	TypeTokenRatio     float64            `json:"type_token_ratio"`
	AvgWordLength      float64            `json:"avg_word_length"`
	VocabularyRichness float64            `json:"vocabulary_richness"`
	FunctionWordDist   map[string]float64 `json:"function_word_dist"`
	ContentWords       []string           `json:"content_words"`

	// Syntactic
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	SentenceLengthStd float64 `json:"sentence_length_std"`
	SentenceLengthMin int     `json:"sentence_length_min"`
	SentenceLengthMax int     `json:"sentence_length_max"`
	PassiveVoiceRatio float64 `json:"passive_voice_ratio"`
	QuestionFrequency float64 `json:"question_frequency"`

	// Discourse
	HedgeFrequency       float64  `json:"hedge_frequency"` // per 100 words
	HedgeTypes           []string `json:"hedge_types"`     // observed, frequency-ranked
	TransitionFrequency  float64  `json:"transition_frequency"`
	PreferredTransitions []string `json:"preferred_transitions"`
	ParagraphLengthAvg   float64  `json:"paragraph_length_avg"`
	ParagraphLengthStd   float64  `json:"paragraph_length_std"`

	// Academic
	CitationDensity  float64 `json:"citation_density"`   // per 100 words
	FirstPersonUsage float64 `json:"first_person_usage"` // per 100 words

	// Derived
	Constraints Constraints `json:"generation_constraints"`
}

// passiveRe matches auxiliary + regular past participle. Irregular
// participles are checked separately against a fixed list.
var passiveRe = regexp.MustCompile(`\b(?:is|are|was|were|be|been|being)\s+([a-z]+)\b`)

// citationRes match common citation forms: (Smith, 2020), Smith (2020),
// [12], (2020). Counts overlap across forms the same way the matcher treats
// overlapping catalog entries: each form counts independently.
var citationRes = []*regexp.Regexp{
	regexp.MustCompile(`\([A-Z][a-z]+(?:\s+et\s+al\.?)?(?:\s+(?:&|and)\s+[A-Z][a-z]+)?,?\s*\d{4}\)`),
	regexp.MustCompile(`[A-Z][a-z]+(?:\s+et\s+al\.?)?\s+\(\d{4}\)`),
	regexp.MustCompile(`\[\d+\]`),
	regexp.MustCompile(`\(\d{4}\)`),
}

// Extract computes a Profile for identity from the given samples.
//
// weights, when non-nil, must be the same length as samples; each sample's
// contribution to mean and deviation calculations is multiplied by its
// weight. A nil weights slice weights all samples equally. Extraction never
// fails: empty or degenerate input produces a zero-valued, NaN-free profile.
func Extract(identity string, samples []string, weights []float64) *Profile {
	p := &Profile{
		Identity:         identity,
		ExtractedAt:      time.Now().UTC(),
		SampleCount:      len(samples),
		FunctionWordDist: map[string]float64{},
	}

	if len(weights) != len(samples) {
		weights = nil
	}
	weight := func(i int) float64 {
		if weights == nil {
			return 1.0
		}
		if weights[i] <= 0 {
			return 0.0
		}
		return weights[i]
	}

	var (
		wordCount    float64 // weighted
		wordLenSum   float64
		rawCounts    = map[string]int{} // unweighted, for set measures
		typeCounts   = map[string]float64{}
		sentLens     []float64
		sentWeights  []float64
		sentCount    float64
		passiveCount float64
		questCount   float64
		hedgeCounts  = map[string]float64{}
		transCounts  = map[string]float64{}
		paraLens     []float64
		paraWeights  []float64
		citations    float64
		firstPerson  float64
	)

	for i, sample := range samples {
		w := weight(i)
		words := textseg.Words(sample)
		p.TotalWords += len(words)

		for _, word := range words {
			wordCount += w
			wordLenSum += w * float64(len(word))
			rawCounts[word]++
			typeCounts[word] += w
			if hedgeSet[word] {
				hedgeCounts[word] += w
			}
			if transitionSet[word] {
				transCounts[word] += w
			}
			if firstPersonWords[word] {
				firstPerson += w
			}
		}

		for _, sent := range textseg.Sentences(sample) {
			n := len(textseg.Words(sent))
			sentLens = append(sentLens, float64(n))
			sentWeights = append(sentWeights, w)
			sentCount += w
			if isPassive(sent) {
				passiveCount += w
			}
			if strings.HasSuffix(strings.TrimSpace(sent), "?") {
				questCount += w
			}
		}

		for _, para := range textseg.Paragraphs(sample) {
			paraLens = append(paraLens, float64(len(textseg.Words(para))))
			paraWeights = append(paraWeights, w)
		}

		for _, re := range citationRes {
			citations += w * float64(len(re.FindAllStringIndex(sample, -1)))
		}
	}

	if wordCount == 0 || sentCount == 0 {
		// Degenerate input: every ratio is defined as zero, never NaN.
		p.Constraints = deriveConstraints(p)
		return p
	}

	// Lexical
	p.AvgWordLength = wordLenSum / wordCount
	// Type/token and hapax ratios are set measures over the concatenation,
	// so they are computed from unweighted counts.
	var types, hapax, rawTotal float64
	for _, c := range rawCounts {
		types++
		rawTotal += float64(c)
		if c == 1 {
			hapax++
		}
	}
	p.TypeTokenRatio = types / rawTotal
	if types > 0 {
		p.VocabularyRichness = hapax / types
	}
	for _, fw := range functionWords {
		p.FunctionWordDist[fw] = typeCounts[fw] / wordCount
	}
	p.ContentWords = topContentWords(typeCounts, 30)

	// Syntactic
	p.AvgSentenceLength = weightedMean(sentLens, sentWeights)
	p.SentenceLengthStd = weightedStd(sentLens, sentWeights, p.AvgSentenceLength)
	p.SentenceLengthMin, p.SentenceLengthMax = intRange(sentLens)
	p.PassiveVoiceRatio = passiveCount / sentCount
	p.QuestionFrequency = questCount / sentCount

	// Discourse
	p.HedgeFrequency = totalCount(hedgeCounts) / wordCount * 100
	p.HedgeTypes = rankMarkers(hedgeCounts)
	p.TransitionFrequency = totalCount(transCounts) / wordCount * 100
	p.PreferredTransitions = rankMarkers(transCounts)
	if len(paraLens) > 0 {
		p.ParagraphLengthAvg = weightedMean(paraLens, paraWeights)
		p.ParagraphLengthStd = weightedStd(paraLens, paraWeights, p.ParagraphLengthAvg)
	}

	// Academic
	p.CitationDensity = citations / wordCount * 100
	p.FirstPersonUsage = firstPerson / wordCount * 100

	p.Constraints = deriveConstraints(p)
	return p
}

// isPassive applies the auxiliary + past-participle heuristic to a single
// sentence. Sentences the heuristic cannot classify count as active.
func isPassive(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, m := range passiveRe.FindAllStringSubmatch(lower, -1) {
		word := m[1]
		if strings.HasSuffix(word, "ed") || strings.HasSuffix(word, "en") {
			return true
		}
		if irregularParticiples[word] {
			return true
		}
	}
	return false
}

func totalCount(counts map[string]float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	return total
}

func weightedMean(values, weights []float64) float64 {
	var sum, wsum float64
	for i, v := range values {
		sum += weights[i] * v
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func weightedStd(values, weights []float64, mean float64) float64 {
	var sum, wsum float64
	for i, v := range values {
		d := v - mean
		sum += weights[i] * d * d
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return math.Sqrt(sum / wsum)
}

func intRange(values []float64) (min, max int) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = int(values[0]), int(values[0])
	for _, v := range values[1:] {
		if int(v) < min {
			min = int(v)
		}
		if int(v) > max {
			max = int(v)
		}
	}
	return min, max
}

// rankMarkers returns observed markers ranked by weighted frequency,
// highest first. Ties break alphabetically so the ranking is stable.
func rankMarkers(counts map[string]float64) []string {
	markers := make([]string, 0, len(counts))
	for m := range counts {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool {
		if counts[markers[i]] != counts[markers[j]] {
			return counts[markers[i]] > counts[markers[j]]
		}
		return markers[i] < markers[j]
	})
	return markers
}

// topContentWords returns the n most frequent words that are neither
// function words nor shorter than four letters.
func topContentWords(counts map[string]float64, n int) []string {
	content := make([]string, 0, len(counts))
	for w := range counts {
		if len(w) > 3 && !functionSet[w] {
			content = append(content, w)
		}
	}
	sort.Slice(content, func(i, j int) bool {
		if counts[content[i]] != counts[content[j]] {
			return counts[content[i]] > counts[content[j]]
		}
		return content[i] < content[j]
	})
	if len(content) > n {
		content = content[:n]
	}
	return content
}
