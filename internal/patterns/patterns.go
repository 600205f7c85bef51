// Package patterns scores text against a catalog of AI-typical phrasing.
//
// The built-in catalog is compiled once at first use and is immutable for
// the life of the process. Custom patterns live in a per-Catalog overlay
// that is replaced copy-on-write, so in-flight scans are never affected by
// concurrent additions. Scans themselves are lock-free over the snapshots
// they capture.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/abelbrown/voiceprint/internal/textseg"
)

// Category identifies one of the ten fixed pattern categories.
type Category string

const (
	GenericOpeners      Category = "Generic Openers"
	ImportancePhrases   Category = "Importance Phrases"
	OverusedTransitions Category = "Overused Transitions"
	ExcessiveHedging    Category = "Excessive Hedging"
	FillerPhrases       Category = "Filler Phrases"
	StructuralPatterns  Category = "Structural Patterns"
	InflatedAdjectives  Category = "Inflated Adjectives"
	EmojiAndSymbols     Category = "Emoji and Symbols"
	AcademicAIPatterns  Category = "Academic AI Patterns"
	ConclusionCliches   Category = "Conclusion Clichés"
)

// Categories lists all fixed categories in catalog order.
var Categories = []Category{
	GenericOpeners, ImportancePhrases, OverusedTransitions, ExcessiveHedging,
	FillerPhrases, StructuralPatterns, InflatedAdjectives, EmojiAndSymbols,
	AcademicAIPatterns, ConclusionCliches,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Entry is one catalog item. Surface is either a literal phrase or a
// pattern with wildcard placeholders: "[a/b/c]" matches any alternative,
// "[N]" matches a number, "..." matches an arbitrary gap.
type Entry struct {
	Category      Category `json:"category"`
	Surface       string   `json:"surface"`
	CaseSensitive bool     `json:"case_sensitive"`
	BadExample    string   `json:"bad_example,omitempty"`
	GoodExample   string   `json:"good_example,omitempty"`
}

// compiled pairs an entry with its matcher. Compilation happens at catalog
// load time, not per scan.
type compiled struct {
	entry Entry
	re    *regexp.Regexp
}

// Match is one occurrence of a catalog entry in scanned text.
type Match struct {
	Surface string `json:"surface"` // catalog surface form, not the matched text
	Offset  int    `json:"offset"`  // byte offset of the match
}

// Result is the outcome of scanning one text.
type Result struct {
	Matches   map[Category][]Match `json:"matches"`
	Total     int                  `json:"total"`
	WordCount int                  `json:"word_count"`
	Density   float64              `json:"density"` // matches per 100 words
}

// wildcardRe finds "[...]" placeholder groups in a surface form.
var wildcardRe = regexp.MustCompile(`\[[^\]]*\]`)

// compile turns a surface form into a regexp. Literal surfaces get word
// boundaries so "very" does not match inside "every"; trailing comma or
// period punctuation is stripped so "Furthermore," matches mid-sentence
// uses too.
func compile(e Entry) (*regexp.Regexp, error) {
	surface := strings.TrimRight(strings.TrimSpace(e.Surface), ",.")
	if surface == "" {
		surface = strings.TrimSpace(e.Surface) // punctuation-only surface (emoji, symbols)
	}

	var pattern string
	if strings.Contains(surface, "[") || strings.Contains(surface, "...") {
		pattern = expandWildcards(surface)
	} else {
		pattern = regexp.QuoteMeta(surface)
	}

	if startsWordChar(surface) {
		pattern = `\b` + pattern
	}
	if endsWordChar(surface) {
		pattern += `\b`
	}
	if !e.CaseSensitive {
		pattern = `(?i)` + pattern
	}
	return regexp.Compile(pattern)
}

// expandWildcards translates the placeholder syntax into regexp source.
func expandWildcards(surface string) string {
	var b strings.Builder
	rest := surface
	for {
		loc := wildcardRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		b.WriteString(quoteLiteral(rest[:loc[0]]))
		inner := rest[loc[0]+1 : loc[1]-1]
		if inner == "N" {
			b.WriteString(`[0-9]+`)
		} else {
			alts := strings.Split(inner, "/")
			for i, a := range alts {
				alts[i] = regexp.QuoteMeta(strings.TrimSpace(a))
			}
			b.WriteString(`(?:` + strings.Join(alts, "|") + `)`)
		}
		rest = rest[loc[1]:]
	}
	b.WriteString(quoteLiteral(rest))
	return b.String()
}

// quoteLiteral quotes literal text, turning "..." gaps into lazy wildcards.
func quoteLiteral(s string) string {
	parts := strings.Split(s, "...")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(parts, `.*?`)
}

func startsWordChar(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func endsWordChar(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// builtinCompiled is the immutable built-in matcher set, compiled once.
var (
	builtinOnce     sync.Once
	builtinCompiled []compiled
)

func loadBuiltin() []compiled {
	builtinOnce.Do(func() {
		for _, e := range builtinEntries {
			re, err := compile(e)
			if err != nil {
				// Built-in surfaces are fixed; a failure here is a
				// programming error in the catalog data.
				panic(fmt.Sprintf("patterns: bad builtin surface %q: %v", e.Surface, err))
			}
			builtinCompiled = append(builtinCompiled, compiled{entry: e, re: re})
		}
	})
	return builtinCompiled
}

// Catalog is the built-in pattern set plus a mutable custom overlay.
type Catalog struct {
	builtin []compiled
	mu      sync.Mutex                 // serializes AddCustom
	overlay atomic.Pointer[[]compiled] // copy-on-write snapshot
}

// NewCatalog returns a catalog backed by the shared built-in set with an
// empty overlay.
func NewCatalog() *Catalog {
	c := &Catalog{builtin: loadBuiltin()}
	empty := []compiled{}
	c.overlay.Store(&empty)
	return c
}

// BuiltinSize returns the number of built-in entries.
func (c *Catalog) BuiltinSize() int { return len(c.builtin) }

// CustomEntries returns a copy of the current overlay entries.
func (c *Catalog) CustomEntries() []Entry {
	snapshot := *c.overlay.Load()
	entries := make([]Entry, len(snapshot))
	for i, ce := range snapshot {
		entries[i] = ce.entry
	}
	return entries
}

// AddCustom appends a pattern to the overlay. The built-in set is never
// modified. Returns an error for unknown categories, empty surfaces or
// surfaces that fail to compile.
func (c *Catalog) AddCustom(e Entry) error {
	if !e.Category.Valid() {
		return fmt.Errorf("patterns: unknown category %q", e.Category)
	}
	if strings.TrimSpace(e.Surface) == "" {
		return fmt.Errorf("patterns: empty surface form")
	}
	re, err := compile(e)
	if err != nil {
		return fmt.Errorf("patterns: compile %q: %w", e.Surface, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	old := *c.overlay.Load()
	next := make([]compiled, len(old), len(old)+1)
	copy(next, old)
	next = append(next, compiled{entry: e, re: re})
	c.overlay.Store(&next)
	return nil
}

// Scan matches text against the built-in set and the current overlay
// snapshot. A single entry counts at most once per character offset;
// distinct entries matching the same span all count. Empty text scans to
// density zero.
func (c *Catalog) Scan(text string) Result {
	result := Result{
		Matches:   map[Category][]Match{},
		WordCount: textseg.WordCount(text),
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	scan := func(set []compiled) {
		for _, ce := range set {
			locs := ce.re.FindAllStringIndex(text, -1)
			if locs == nil {
				continue
			}
			cat := ce.entry.Category
			for _, loc := range locs {
				result.Matches[cat] = append(result.Matches[cat], Match{
					Surface: ce.entry.Surface,
					Offset:  loc[0],
				})
				result.Total++
			}
		}
	}
	scan(c.builtin)
	scan(*c.overlay.Load())

	if result.WordCount > 0 {
		result.Density = float64(result.Total) / (float64(result.WordCount) / 100)
	}
	return result
}
