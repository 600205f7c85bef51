package style

import (
	"fmt"
	"math"
	"strings"
)

// Constraints is the machine-renderable generation directive derived from a
// Profile. Callers embed it in their own prompts; Render produces the
// default text form.
type Constraints struct {
	TargetSentenceLength float64  `json:"target_sentence_length"`
	SentenceLengthSpread float64  `json:"sentence_length_spread"`
	SentenceLengthLow    float64  `json:"sentence_length_low"`
	SentenceLengthHigh   float64  `json:"sentence_length_high"`
	ParagraphLength      float64  `json:"paragraph_length"`
	PassivePercent       float64  `json:"passive_percent"`
	PreferredHedges      []string `json:"preferred_hedges"`
	PreferredTransitions []string `json:"preferred_transitions"`
	FirstPersonPer100    float64  `json:"first_person_per_100"`
	CitationsPer100      float64  `json:"citations_per_100"`
}

// defaultParagraphLength is assumed when the samples carry no paragraph
// structure (single-paragraph input).
const defaultParagraphLength = 150

func deriveConstraints(p *Profile) Constraints {
	c := Constraints{
		TargetSentenceLength: p.AvgSentenceLength,
		SentenceLengthSpread: p.SentenceLengthStd,
		SentenceLengthLow:    math.Max(8, p.AvgSentenceLength-2*p.SentenceLengthStd),
		SentenceLengthHigh:   p.AvgSentenceLength + 2*p.SentenceLengthStd,
		ParagraphLength:      p.ParagraphLengthAvg,
		PassivePercent:       p.PassiveVoiceRatio * 100,
		PreferredHedges:      head(p.HedgeTypes, 5),
		PreferredTransitions: head(p.PreferredTransitions, 5),
		FirstPersonPer100:    p.FirstPersonUsage,
		CitationsPer100:      p.CitationDensity,
	}
	if c.ParagraphLength == 0 {
		c.ParagraphLength = defaultParagraphLength
	}
	return c
}

// Render produces the directive as numbered plain text.
func (c Constraints) Render() string {
	hedges := strings.Join(c.PreferredHedges, ", ")
	if hedges == "" {
		hedges = "suggests, indicates, appears"
	}
	transitions := strings.Join(c.PreferredTransitions, ", ")
	if transitions == "" {
		transitions = "however, but"
	}

	var b strings.Builder
	b.WriteString("VOICE CONSTRAINTS:\n")
	fmt.Fprintf(&b, "1. Sentence length: target %.0f words (±%.0f), vary between %.0f-%.0f\n",
		c.TargetSentenceLength, c.SentenceLengthSpread, c.SentenceLengthLow, c.SentenceLengthHigh)
	fmt.Fprintf(&b, "2. Paragraph length: approximately %.0f words per paragraph\n", c.ParagraphLength)
	fmt.Fprintf(&b, "3. Passive voice: use in approximately %.0f%% of sentences\n", c.PassivePercent)
	fmt.Fprintf(&b, "4. Hedging: prefer %q\n", hedges)
	fmt.Fprintf(&b, "5. Transitions: prefer %q over generic \"furthermore, moreover, additionally\"\n", transitions)
	fmt.Fprintf(&b, "6. First person: about %.1f uses per 100 words; citations: about %.1f per 100 words\n",
		c.FirstPersonPer100, c.CitationsPer100)
	b.WriteString("7. Mirror the level of formality and directness of the samples")
	return b.String()
}

// Describe returns a short human-readable characterization of the profile.
func (p *Profile) Describe() string {
	sentence := "moderately complex sentences"
	switch {
	case p.AvgSentenceLength > 25:
		sentence = "complex, lengthy sentences"
	case p.AvgSentenceLength < 15:
		sentence = "concise, punchy sentences"
	}

	variation := "with moderate variation in length"
	switch {
	case p.SentenceLengthStd > 10:
		variation = "with high variation in length"
	case p.SentenceLengthStd < 5:
		variation = "with consistent, uniform length"
	}

	voice := "balanced active/passive voice"
	switch {
	case p.PassiveVoiceRatio > 0.3:
		voice = "predominantly passive voice"
	case p.PassiveVoiceRatio < 0.1:
		voice = "predominantly active voice"
	}

	hedging := "moderate use of hedging language"
	switch {
	case p.HedgeFrequency > 2.0:
		hedging = "frequent hedging and uncertainty markers"
	case p.HedgeFrequency < 0.5:
		hedging = "direct, confident claims with minimal hedging"
	}

	vocab := "moderately diverse vocabulary"
	switch {
	case p.TypeTokenRatio > 0.5:
		vocab = "rich, varied vocabulary"
	case p.TypeTokenRatio < 0.3:
		vocab = "focused, repetitive vocabulary"
	}

	person := "balanced personal and impersonal voice"
	switch {
	case p.FirstPersonUsage > 1.5:
		person = "strong authorial presence"
	case p.FirstPersonUsage < 0.3:
		person = "impersonal, objective tone"
	}

	return fmt.Sprintf("Writing style characterized by %s %s. Uses %s with %s. Features %s and %s.",
		sentence, variation, voice, hedging, vocab, person)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
