package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runProfile() {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full profile as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice profile [-json] <identity> [sample-file ...]")
		fmt.Fprintln(os.Stderr, "With sample files the profile is re-extracted; without, the stored one is shown.")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "profile")

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if len(args) > 1 {
		if _, err := mgr.ExtractProfile(identity, readTexts(args[1:]), nil); err != nil {
			fail(err)
		}
	}

	profile, err := mgr.Profile(identity)
	if err != nil {
		fail(err)
	}
	if profile == nil {
		fmt.Fprintf(os.Stderr, "error: %q has no profile yet (run: voice profile %s <sample-file ...>)\n",
			identity, identity)
		os.Exit(1)
	}

	if *asJSON {
		out, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Style profile for %q (%d samples, %d words)\n",
		profile.Identity, profile.SampleCount, profile.TotalWords)
	fmt.Printf("  Sentences:   avg %.1f words (std %.1f, range %d-%d)\n",
		profile.AvgSentenceLength, profile.SentenceLengthStd,
		profile.SentenceLengthMin, profile.SentenceLengthMax)
	fmt.Printf("  Vocabulary:  TTR %.2f, avg word length %.1f, richness %.2f\n",
		profile.TypeTokenRatio, profile.AvgWordLength, profile.VocabularyRichness)
	fmt.Printf("  Passive:     %.1f%% of sentences\n", profile.PassiveVoiceRatio*100)
	fmt.Printf("  Questions:   %.1f%% of sentences\n", profile.QuestionFrequency*100)
	fmt.Printf("  Hedges:      %.1f per 100 words (%s)\n",
		profile.HedgeFrequency, strings.Join(profile.HedgeTypes, ", "))
	fmt.Printf("  Transitions: %.1f per 100 words (%s)\n",
		profile.TransitionFrequency, strings.Join(profile.PreferredTransitions, ", "))
	fmt.Printf("  Paragraphs:  avg %.1f sentences\n", profile.ParagraphLengthAvg)
	fmt.Printf("  Citations:   %.1f per 100 words\n", profile.CitationDensity)
	fmt.Printf("  First person: %.1f per 100 words\n", profile.FirstPersonUsage)
	if len(profile.ContentWords) > 0 {
		fmt.Printf("  Content words: %s\n", strings.Join(profile.ContentWords, ", "))
	}
}

func runConstraints() {
	fs := flag.NewFlagSet("constraints", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice constraints <identity>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	identity := requireIdentity(fs.Args(), "constraints")

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	text, err := mgr.RenderConstraints(identity)
	if err != nil {
		fail(err)
	}
	fmt.Println(text)
}
