package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/voiceprint/internal/patterns"
)

func runPatterns() {
	fs := flag.NewFlagSet("patterns", flag.ExitOnError)
	examples := fs.Bool("examples", false, "Show a bad/good example pair per category")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: voice patterns [-examples]")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	catalog := patterns.NewCatalog()
	fmt.Printf("%d built-in pattern(s) across %d categories\n\n",
		catalog.BuiltinSize(), len(patterns.Categories))

	for _, category := range patterns.Categories {
		info := patterns.CategoryInfo[category]
		fmt.Printf("%s\n  %s\n", category, info.Description)
		if *examples {
			fmt.Printf("  bad:  %s\n", truncate(info.BadExample, 70))
			fmt.Printf("  good: %s\n", truncate(info.GoodExample, 70))
		}
		fmt.Println()
	}
}
