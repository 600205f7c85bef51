// Command voice is the CLI for voiceprint: voice setup, scoring, pattern
// scanning and feedback calibration.
//
// Usage:
//
//	voice                         Show help
//	voice setup <identity> ...    Create a voice from writing samples
//	voice add <identity> ...      Add samples to an existing voice
//	voice contrast <identity> ... Add contrast samples to a named anchor
//	voice eval <identity> [file]  Score a text against a voice
//	voice scan [file]             Pattern scan without an identity
//	voice patterns                List the built-in pattern categories
//	voice feedback <identity> ... Accept/reject one candidate text
//	voice rank <identity> ...     Ranking feedback, best text first
//	voice profile <identity> ...  Extract or show the style profile
//	voice constraints <identity>  Render the generation directive
//	voice stats <identity>        Signature and calibration state
//	voice rebuild <identity>      Rebuild the signature from the event log
//	voice reset <identity>        Delete a voice and all its state
//	voice list                    List known identities
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/abelbrown/voiceprint/internal/logging"
)

const usage = `voice — voiceprint CLI

Usage:
  voice <command> [flags]

Commands:
  setup        Create a voice from writing samples (replaces existing)
  add          Add samples to an existing voice
  contrast     Add contrast samples to a named anchor (e.g. ai_generated)
  eval         Score a text against a voice
  scan         Pattern scan a text without an identity
  patterns     List the built-in pattern categories
  feedback     Accept or reject one candidate text
  rank         Ranking feedback, best text first
  profile      Extract (with files) or show the style profile
  constraints  Render the generation directive for a voice
  stats        Signature and calibration state
  rebuild      Rebuild the signature by replaying stored samples and feedback
  reset        Delete a voice and all of its stored state
  list         List known identities

Environment:
  JINA_API_KEY        Jina AI API key (preferred embedding backend)
  JINA_EMBED_MODEL    Jina model (default: jina-embeddings-v3)
  GOOGLE_API_KEY      Gemini API key (used when no Jina key is set)
  GEMINI_EMBED_MODEL  Gemini model (default: gemini-embedding-001)
  OLLAMA_ENDPOINT     Ollama endpoint (default: http://localhost:11434)
  OLLAMA_EMBED_MODEL  Ollama model (default: nomic-embed-text)

Texts are given as file paths; with no files the text is read from stdin.
Run 'voice <command> -h' for command-specific help.
`

func main() {
	_ = godotenv.Load()
	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "voice: %v\n", err)
	}
	defer logging.Close()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "setup":
		runSetup()
	case "add":
		runAdd()
	case "contrast":
		runContrast()
	case "eval":
		runEval()
	case "scan":
		runScan()
	case "patterns":
		runPatterns()
	case "feedback":
		runFeedback()
	case "rank":
		runRank()
	case "profile":
		runProfile()
	case "constraints":
		runConstraints()
	case "stats":
		runStats()
	case "rebuild":
		runRebuild()
	case "reset":
		runReset()
	case "list":
		runList()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "voice: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
