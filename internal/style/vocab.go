package style

// Fixed vocabularies for discourse-marker detection. These are process-wide
// static state: matching is case-insensitive against lowercased word tokens,
// and "preferred" lists report only markers actually observed, ranked by
// observed frequency.

// hedgeWords are uncertainty markers.
var hedgeWords = []string{
	"may", "might", "could", "possibly", "perhaps", "probably",
	"likely", "unlikely", "suggests", "indicates", "appears",
	"seems", "arguably", "potentially", "presumably", "generally",
	"typically", "often", "sometimes", "occasionally", "tends",
}

// transitionWords are academic transition markers.
var transitionWords = []string{
	"however", "furthermore", "moreover", "consequently", "therefore",
	"nevertheless", "nonetheless", "thus", "hence", "accordingly",
	"meanwhile", "subsequently", "alternatively", "conversely",
	"similarly", "likewise", "notably", "specifically", "particularly",
	"indeed", "certainly", "clearly", "obviously", "evidently",
}

// functionWords are content-independent style markers used for the
// function-word distribution.
var functionWords = []string{
	"the", "a", "an", "and", "or", "but", "if", "then", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about",
	"to", "from", "in", "on", "that", "this", "which", "who", "what",
	"is", "are", "was", "were", "be", "been", "being", "have", "has",
	"had", "do", "does", "did", "will", "would", "could", "should",
	"may", "might", "must", "can", "i", "we", "you", "he", "she", "it",
	"they", "my", "our", "your", "his", "her", "its", "their",
}

// firstPersonWords mark authorial presence.
var firstPersonWords = map[string]bool{
	"i": true, "we": true, "my": true, "our": true,
	"me": true, "us": true, "myself": true, "ourselves": true,
}

// irregularParticiples covers common past participles that the -ed/-en
// suffix heuristic misses. The passive heuristic only counts sentences it
// is sure about; anything ambiguous counts as active.
var irregularParticiples = map[string]bool{
	"done": true, "made": true, "given": true, "taken": true, "seen": true,
	"known": true, "shown": true, "found": true, "held": true, "kept": true,
	"left": true, "lost": true, "meant": true, "sent": true, "set": true,
	"told": true, "thought": true, "understood": true, "built": true,
	"brought": true, "bought": true, "caught": true, "taught": true,
	"said": true, "read": true, "put": true, "felt": true, "sold": true,
	"drawn": true, "chosen": true, "spoken": true, "broken": true,
}

var hedgeSet = toSet(hedgeWords)
var transitionSet = toSet(transitionWords)
var functionSet = toSet(functionWords)

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
