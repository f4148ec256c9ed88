// Command extract runs a single lead extraction against the configured provider.
//
//	extract email.txt
//	cat email.txt | extract
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/wolfman30/lead-extractor/cmd/mainconfig"
	appconfig "github.com/wolfman30/lead-extractor/internal/config"
	"github.com/wolfman30/lead-extractor/internal/leads"
	"github.com/wolfman30/lead-extractor/pkg/logging"
)

func main() {
	verbose := flag.Bool("v", false, "log provider calls to stderr")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.Discard()
	if *verbose {
		logger = logging.NewWithWriter("debug", os.Stderr)
	}

	content, err := readInput(flag.Arg(0), os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	extraction, err := mainconfig.BuildExtraction(ctx, cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(1)
	}

	code := run(ctx, extraction.Extractor, content, os.Stdout, os.Stderr)
	_ = extraction.Close()
	os.Exit(code)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// run prints the record as indented JSON and maps failures onto exit codes:
// 2 for rejected input, 1 for provider failures.
func run(ctx context.Context, extractor leads.LeadExtractor, content string, stdout, stderr io.Writer) int {
	rec, err := extractor.Extract(ctx, content)
	if err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(stderr, "extract: %s\n", verr.Message)
			return 2
		}
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}
	return 0
}
