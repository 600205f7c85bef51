// Package textseg segments raw text into words, sentences and paragraphs.
//
// Both the statistical feature path and the embedding path consume these
// segmentations, so the rules live in one place. Words are lowercased ASCII
// letter runs; sentence splitting is terminal-punctuation aware and does not
// break on common abbreviations, initials or decimal numbers.
package textseg

import (
	"regexp"
	"strings"
	"unicode"
)

// wordRe matches runs of ASCII letters. Digits and punctuation are not part
// of a word for stylometric purposes.
var wordRe = regexp.MustCompile(`[a-zA-Z]+`)

// paragraphRe splits on one or more blank lines.
var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// abbreviations that end with a period but do not end a sentence.
// Lowercased, without the trailing period.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"st": true, "jr": true, "sr": true, "vs": true, "etc": true,
	"e.g": true, "i.e": true, "cf": true, "al": true, "fig": true,
	"vol": true, "no": true, "pp": true, "ed": true, "eds": true,
	"inc": true, "ltd": true, "co": true, "dept": true, "univ": true,
	"approx": true, "ca": true,
}

// Words returns the lowercased word tokens of text.
func Words(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	words := make([]string, len(matches))
	for i, m := range matches {
		words[i] = strings.ToLower(m)
	}
	return words
}

// WordCount returns the number of word tokens in text.
func WordCount(text string) int {
	return len(wordRe.FindAllStringIndex(text, -1))
}

// Sentences splits text into sentences on terminal punctuation (. ! ?)
// followed by whitespace. A period preceded by a known abbreviation, a
// single initial (as in "J. Smith") or a digit-adjacent decimal point does
// not end a sentence. Whitespace-only fragments are dropped.
func Sentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Consume runs of terminal punctuation ("?!", "...").
		end := i
		for end+1 < len(runes) && isTerminal(runes[end+1]) {
			end++
		}

		// Allow a closing quote or paren after the punctuation.
		last := end
		for last+1 < len(runes) && isClosing(runes[last+1]) {
			last++
		}

		// A sentence boundary needs trailing whitespace or end of text.
		if last+1 < len(runes) && !unicode.IsSpace(runes[last+1]) {
			i = end
			continue
		}

		if r == '.' && end == i && !periodEndsSentence(runes, i) {
			continue
		}

		s := strings.TrimSpace(string(runes[start : last+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = last + 1
		i = last
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// periodEndsSentence reports whether the period at index i is a real
// sentence terminator rather than part of an abbreviation, initial or
// decimal number.
func periodEndsSentence(runes []rune, i int) bool {
	// Decimal number: digit on both sides ("3.14").
	if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
		return false
	}

	// Collect the token immediately before the period.
	j := i - 1
	for j >= 0 && !unicode.IsSpace(runes[j]) && runes[j] != '(' && runes[j] != '"' {
		j--
	}
	tok := strings.ToLower(string(runes[j+1 : i]))

	// Single-letter initials: "J. Smith", and acronym segments like "U.S."
	// where the final dotted segment is one letter.
	segs := strings.Split(tok, ".")
	if last := segs[len(segs)-1]; len(last) == 1 && last >= "a" && last <= "z" {
		return false
	}
	// Inner periods already stripped of the final one: "e.g", "i.e".
	if abbreviations[tok] || abbreviations[segs[len(segs)-1]] {
		return false
	}
	return true
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosing(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '”'
}

// Paragraphs splits text on blank lines, dropping empty fragments.
func Paragraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// minChunkWords is the smallest chunk worth embedding on its own.
const minChunkWords = 100

// Chunk splits text into runs of roughly size words for per-chunk
// embedding. Trailing fragments shorter than 100 words are dropped unless
// they are all there is: the whole text is always represented by at least
// one chunk.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = 500
	}
	fields := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(fields); i += size {
		end := i + size
		if end > len(fields) {
			end = len(fields)
		}
		if end-i >= minChunkWords {
			chunks = append(chunks, strings.Join(fields[i:end], " "))
		}
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
