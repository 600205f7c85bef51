package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/voiceprint/internal/patterns"
)

func runEval() {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice eval [-json] <identity> [file]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "eval")
	text := readTexts(args[1:])[0]

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	res, err := mgr.Evaluate(ctx, identity, text)
	if err != nil {
		fail(err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(out))
		return
	}

	verdict := "DOES NOT SOUND LIKE"
	if res.SoundsLikeMe {
		verdict = "SOUNDS LIKE"
	}
	fmt.Printf("%s %q\n", verdict, identity)
	fmt.Printf("  Similarity: %.4f (threshold %.2f, confidence %.2f)\n",
		res.Similarity, res.Threshold, res.Confidence)
	for category, score := range res.ContrastScores {
		fmt.Printf("  Contrast %-16s %.4f\n", category+":", score)
	}
	fmt.Printf("  Patterns:   %.1f per 100 words (%d words)\n", res.PatternDensity, res.WordCount)
	printMatches(res.MatchedPatterns)
}

func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice scan [-json] [file]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	text := readTexts(fs.Args())[0]

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	res := mgr.ScanPatterns(text)

	if *asJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("%d match(es) in %d words: %.1f per 100 words\n",
		res.Total, res.WordCount, res.Density)
	printMatches(res.Matches)
}

// printMatches lists matched surfaces grouped by category, catalog order.
func printMatches(matches map[patterns.Category][]patterns.Match) {
	for _, category := range patterns.Categories {
		hits := matches[category]
		if len(hits) == 0 {
			continue
		}
		fmt.Printf("  %s (%d):\n", category, len(hits))
		for _, m := range hits {
			fmt.Printf("    %-40s @%d\n", truncate(m.Surface, 40), m.Offset)
		}
	}
}
