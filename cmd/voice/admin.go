package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice stats <identity>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	identity := requireIdentity(fs.Args(), "stats")

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	sig, err := mgr.Signature(identity)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Voice %q\n", sig.Identity)
	fmt.Printf("  Created:    %s\n", sig.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Updated:    %s\n", sig.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Samples:    %d (%d words)\n", sig.SampleCount, sig.TotalWords)
	fmt.Printf("  Dimensions: %d\n", sig.Dim)
	fmt.Printf("  Threshold:  %.2f\n", sig.Threshold)
	fmt.Printf("  Confidence: %.2f\n", sig.Confidence)
	fmt.Printf("  Feedback:   %d accepted, %d rejected, %d event(s) logged\n",
		sig.Positive, sig.Negative, len(sig.Log))

	if len(sig.Contrast) > 0 {
		categories := make([]string, 0, len(sig.Contrast))
		for category := range sig.Contrast {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		fmt.Println("  Contrast anchors:")
		for _, category := range categories {
			fmt.Printf("    %-20s %d sample(s)\n", category, sig.ContrastCounts[category])
		}
	}
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice rebuild <identity>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	identity := requireIdentity(fs.Args(), "rebuild")

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.Rebuild(ctx, identity); err != nil {
		fail(err)
	}
	sig, err := mgr.Signature(identity)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Rebuilt %q from %d event(s): threshold %.2f, confidence %.2f\n",
		identity, len(sig.Log), sig.Threshold, sig.Confidence)
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip the confirmation prompt")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice reset [-force] <identity>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	identity := requireIdentity(fs.Args(), "reset")

	if !*force {
		fmt.Printf("Delete voice %q and all of its samples and feedback? [y/N] ", identity)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("aborted")
			return
		}
	}

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	if err := mgr.Reset(identity); err != nil {
		fail(err)
	}
	fmt.Printf("Voice %q deleted\n", identity)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	ctx := context.Background()
	mgr, done := newManager(ctx)
	defer done()

	ids, err := mgr.ListVoices()
	if err != nil {
		fail(err)
	}
	if len(ids) == 0 {
		fmt.Println("no voices yet (run: voice setup <identity> <sample-file ...>)")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}
