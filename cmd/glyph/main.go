// Glyph - cipher corpus builder and embedding visualizer
//
// Glyph turns a homophonic-cipher key file into aligned plaintext and
// ciphertext corpora for embedding training, then projects the trained
// symbol vectors to 2-D and plots them coloured by plaintext letter.
//
// Subcommands:
//   - corpus:    write plaintext.txt, ciphertext.txt and combined.txt
//   - plot:      project vectors and render the scatter plots
//   - neighbors: list nearest symbols by cosine similarity
//   - init:      write a default glyph.yaml
//   - version:   print the version
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
)

const version = "0.1.0"

const usage = `Usage: glyph <command> [flags]

Commands:
  corpus      Build aligned corpora from a key file
  plot        Project vectors with t-SNE and render scatter plots
  neighbors   Report nearest symbols for cipher tokens
  init        Write a default config file
  version     Show version and exit
  help        Show this help

Run 'glyph <command> -h' for command flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := run(ctx, os.Args[1:], logger); err != nil {
		werrors.Display(err)
		stop()
		os.Exit(1)
	}
}

// run dispatches a subcommand.
func run(ctx context.Context, args []string, logger *log.Logger) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return werrors.Command(werrors.ErrCommandInvalidArgs, "no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "corpus":
		return runCorpus(rest, logger)
	case "plot":
		return runPlot(ctx, rest, logger)
	case "neighbors":
		return runNeighbors(rest, logger)
	case "init":
		return runInit(rest)
	case "version", "-version", "--version":
		fmt.Printf("Glyph %s\n", version)
		return nil
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return werrors.AttachSuggestions(
			werrors.Commandf(werrors.ErrCommandUnknown, "unknown command %q", cmd).
				WithContext("command", cmd))
	}
}
