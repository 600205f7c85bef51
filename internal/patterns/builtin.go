package patterns

// Built-in catalog of AI-typical phrasing, grouped into the ten fixed
// categories. Loaded once at first use; immutable at runtime. Punctuation
// frequency signals (em-dash runs, ellipsis overuse) are deliberately not
// modeled here: substring matching over prose punctuation produces too many
// false positives, and rhythm belongs to the style extractor.

// Info describes a category with representative examples.
type Info struct {
	Description string
	BadExample  string
	GoodExample string
}

// CategoryInfo maps each fixed category to its description and a
// representative bad/good example pair.
var CategoryInfo = map[Category]Info{
	GenericOpeners: {
		Description: "Formulaic paragraph and section openers",
		BadExample:  "In today's rapidly evolving digital landscape...",
		GoodExample: "Social media platforms now mediate most political discourse.",
	},
	ImportancePhrases: {
		Description: "Telling readers what is important instead of showing",
		BadExample:  "It is important to note that gatekeeping has evolved significantly.",
		GoodExample: "Gatekeeping has evolved from editorial control to algorithmic curation.",
	},
	OverusedTransitions: {
		Description: "Heavy reliance on a small set of formal transitions",
		BadExample:  "Furthermore, this approach has several advantages. Moreover, it addresses...",
		GoodExample: "This approach also addresses the scalability concern.",
	},
	ExcessiveHedging: {
		Description: "Constant hedging that makes claims sound uncertain and generic",
		BadExample:  "It would seem that there is a possibility that users might...",
		GoodExample: "Users in treatment groups shared 40% more misinformation.",
	},
	FillerPhrases: {
		Description: "Empty phrases that add words without meaning",
		BadExample:  "A wide range of factors play a crucial role in determining outcomes.",
		GoodExample: "Three factors determine outcomes: reach, timing, and source credibility.",
	},
	StructuralPatterns: {
		Description: "Predictable structures that signal generated text",
		BadExample:  "Great question! Here are 5 key points to consider:",
		GoodExample: "Networked gatekeeping differs from traditional models in three ways.",
	},
	InflatedAdjectives: {
		Description: "Superlatives and intensifiers that weaken prose",
		BadExample:  "The results are truly groundbreaking and absolutely transformative.",
		GoodExample: "The results show a 3x improvement over the baseline.",
	},
	EmojiAndSymbols: {
		Description: "Emoji and decoration symbols inserted into prose",
		BadExample:  "Key takeaways: 🔑 First, ... 💡 Second, ... ✨ Finally, ...",
		GoodExample: "Three findings stand out. First, ... Second, ... Third, ...",
	},
	AcademicAIPatterns: {
		Description: "Stock moves of generated academic writing",
		BadExample:  "This paper aims to fill a gap in the literature by providing a comprehensive analysis.",
		GoodExample: "Prior work assumes static networks; we model temporal evolution.",
	},
	ConclusionCliches: {
		Description: "Formulaic section and paper endings",
		BadExample:  "In conclusion, this paper has demonstrated the importance of gatekeeping.",
		GoodExample: "Gatekeeping has shifted from editors to algorithms, but power remains concentrated.",
	},
}

func cat(c Category, surfaces ...string) []Entry {
	entries := make([]Entry, len(surfaces))
	for i, s := range surfaces {
		entries[i] = Entry{Category: c, Surface: s, CaseSensitive: c == EmojiAndSymbols}
	}
	return entries
}

var builtinEntries = join(
	cat(GenericOpeners,
		"In today's [world/society/age/landscape]",
		"In recent years",
		"In the realm of",
		"In the world of",
		"In the context of",
		"In the field of",
		"In this day and age",
		"Throughout history",
		"Since the dawn of time",
		"As we navigate",
		"As we delve into",
		"As technology continues to evolve",
		"With the rise of",
		"With the advent of",
		"With the increasing importance of",
		"Given the importance of",
		"When it comes to",
		"It is no secret that",
		"It goes without saying that",
		"It is widely acknowledged that",
		"It is commonly known that",
		"It is well established that",
	),
	cat(ImportancePhrases,
		"It is important to note that",
		"It is worth noting that",
		"It should be noted that",
		"It is crucial to understand that",
		"It is essential to recognize that",
		"It is vital to consider that",
		"It bears mentioning that",
		"It must be emphasized that",
		"It cannot be overstated that",
		"Importantly,",
		"Notably,",
		"Crucially,",
		"Significantly,",
		"Remarkably,",
		"Strikingly,",
		"What's important here is",
		"The key point is that",
		"The crucial aspect is",
		"One important thing to consider is",
	),
	cat(OverusedTransitions,
		"Furthermore,",
		"Moreover,",
		"Additionally,",
		"In addition,",
		"Consequently,",
		"Subsequently,",
		"Accordingly,",
		"As a result,",
		"On the other hand,",
		"That being said,",
		"With that said,",
		"Having said that,",
		"Be that as it may,",
		"First and foremost,",
		"Last but not least,",
		"Firstly, ... Secondly, ... Thirdly,",
	),
	cat(ExcessiveHedging,
		"may or may not",
		"could potentially",
		"might possibly",
		"to some extent",
		"in some ways",
		"in certain respects",
		"to a certain degree",
		"it seems that",
		"it appears that",
		"it would seem that",
		"one could argue that",
		"some might say that",
		"there is a possibility that",
		"it is possible that",
		"it is likely that",
		"has the potential to",
	),
	cat(FillerPhrases,
		"a wide range of",
		"a variety of",
		"a plethora of",
		"a myriad of",
		"a multitude of",
		"an array of",
		"a vast array of",
		"many different",
		"several key",
		"serves as",
		"acts as",
		"functions as",
		"plays a role in",
		"plays a crucial role in",
		"plays a vital role in",
		"plays an important role in",
		"is considered to be",
		"can be seen as",
		"is known to be",
		"is said to be",
		"in terms of",
		"with regard to",
		"with respect to",
		"in relation to",
		"pertaining to",
		"the fact that",
		"due to the fact that",
		"owing to the fact that",
		"despite the fact that",
		"in light of the fact that",
		"given the fact that",
	),
	cat(StructuralPatterns,
		"Let's dive in",
		"Let's explore",
		"Let's delve into",
		"Let's take a closer look",
		"Let's unpack",
		"Let me explain",
		"Allow me to",
		"I'd be happy to",
		"Great question",
		"That's a great question",
		"Here's the thing:",
		"Here's what you need to know",
		"The bottom line is",
		"At the end of the day",
		"When all is said and done",
		"Moving forward",
		"Going forward",
		"Looking ahead",
		"Here are [N] reasons",
		"Here are [N] ways",
		"Here are [N] tips",
		"Here are [N] key points",
		"There are several key points",
		"Consider the following:",
		"The following points illustrate",
	),
	cat(InflatedAdjectives,
		"very",
		"really",
		"extremely",
		"incredibly",
		"absolutely",
		"utterly",
		"completely",
		"totally",
		"highly",
		"deeply",
		"profoundly",
		"significantly",
		"substantially",
		"considerably",
		"remarkably",
		"exceptionally",
		"extraordinarily",
		"groundbreaking",
		"revolutionary",
		"transformative",
		"game-changing",
		"cutting-edge",
		"state-of-the-art",
		"world-class",
		"best-in-class",
		"robust",
		"comprehensive",
		"holistic",
		"synergistic",
		"innovative",
		"seamless",
		"seamlessly",
		"effortless",
		"effortlessly",
	),
	cat(EmojiAndSymbols,
		"🔑", "💡", "📌", "✨", "🎯", "🚀", "⭐", "📊", "🔍",
		"✅", "❌", "👉", "⚡", "🌟", "💪", "🎉",
	),
	cat(AcademicAIPatterns,
		"This paper explores",
		"This study aims to",
		"This research investigates",
		"The purpose of this study is to",
		"The aim of this paper is to",
		"We aim to contribute to",
		"This work contributes to",
		"fills a gap in the literature",
		"addresses a gap in",
		"contributes to our understanding of",
		"sheds light on",
		"provides insights into",
		"offers a nuanced understanding of",
		"provides a comprehensive overview of",
		"presents a systematic analysis of",
		"adopts a mixed-methods approach",
		"employs a qualitative methodology",
		"utilizes a quantitative framework",
		"building on the work of",
		"extending the work of",
		"in line with previous research",
		"consistent with prior studies",
		"contrary to expectations",
		"as hypothesized",
		"the findings suggest that",
		"the results indicate that",
		"the data reveal that",
		"our analysis shows that",
		"future research should",
		"further research is needed",
		"more research is warranted",
		"limitations notwithstanding",
		"despite these limitations",
	),
	cat(ConclusionCliches,
		"In conclusion,",
		"To conclude,",
		"In summary,",
		"To summarize,",
		"To sum up,",
		"In closing,",
		"All in all,",
		"Taken together,",
		"In the final analysis,",
		"The takeaway is",
		"The key takeaway is",
		"What we can learn from this is",
		"This goes to show that",
		"This highlights the importance of",
		"This underscores the need for",
		"As we move forward,",
		"only time will tell",
		"remains to be seen",
		"the jury is still out",
	),
)

func join(groups ...[]Entry) []Entry {
	var all []Entry
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
