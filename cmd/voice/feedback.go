package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	reject := fs.Bool("reject", false, "Mark the text as not sounding like the voice")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice feedback [-reject] <identity> [file]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "feedback")
	text := readTexts(args[1:])[0]

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.Feedback(ctx, identity, text, !*reject); err != nil {
		fail(err)
	}
	sig, err := mgr.Signature(identity)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Feedback recorded for %q: %d accepted, %d rejected, threshold %.2f, confidence %.2f\n",
		identity, sig.Positive, sig.Negative, sig.Threshold, sig.Confidence)
}

func runRank() {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice rank <identity> <best-file> <next-file> [...]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "rank")
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "error: rank needs at least two files, best first")
		os.Exit(1)
	}
	texts := readTexts(args[1:])

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.CompareRanked(ctx, identity, texts); err != nil {
		fail(err)
	}
	fmt.Printf("Ranking of %d texts recorded for %q\n", len(texts), identity)
}
