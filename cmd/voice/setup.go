package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runSetup() {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice setup <identity> [sample-file ...]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "setup")
	samples := readTexts(args[1:])

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	sig, err := mgr.SetupVoice(ctx, identity, samples, nil)
	if err != nil {
		fail(err)
	}
	if _, err := mgr.ExtractProfile(identity, samples, nil); err != nil {
		fail(err)
	}

	fmt.Printf("Voice %q created\n", identity)
	fmt.Printf("  Samples:    %d (%d words)\n", sig.SampleCount, sig.TotalWords)
	fmt.Printf("  Dimensions: %d\n", sig.Dim)
	fmt.Printf("  Threshold:  %.2f\n", sig.Threshold)
	fmt.Printf("  Confidence: %.2f\n", sig.Confidence)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice add <identity> [sample-file ...]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "add")
	samples := readTexts(args[1:])

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.AddSamples(ctx, identity, samples); err != nil {
		fail(err)
	}
	sig, err := mgr.Signature(identity)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Added %d sample(s) to %q: now %d samples, %d words, confidence %.2f\n",
		len(samples), identity, sig.SampleCount, sig.TotalWords, sig.Confidence)
}

func runContrast() {
	fs := flag.NewFlagSet("contrast", flag.ExitOnError)
	category := fs.String("category", "ai_generated", "Contrast anchor name")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice contrast [-category name] <identity> [sample-file ...]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	args := fs.Args()
	identity := requireIdentity(args, "contrast")
	samples := readTexts(args[1:])

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.AddContrast(ctx, identity, *category, samples); err != nil {
		fail(err)
	}
	fmt.Printf("Added %d contrast sample(s) to %q anchor %q\n", len(samples), identity, *category)
}
