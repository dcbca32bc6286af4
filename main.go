package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/mobile-money-parser/internal/api"
	"github.com/insightdelivered/mobile-money-parser/internal/config"
	"github.com/insightdelivered/mobile-money-parser/internal/extractor"
	"github.com/insightdelivered/mobile-money-parser/internal/models"
	"github.com/insightdelivered/mobile-money-parser/internal/parser"
	"github.com/insightdelivered/mobile-money-parser/internal/samples"
	"github.com/insightdelivered/mobile-money-parser/internal/writer"
)

const usageText = `Mobile Money SMS Parser
by Insight Delivered

Turns M-Pesa, Airtel Money and bank SMS notifications into structured
transactions (JSON or CSV).

Usage:
  mobile-money-parser [flags] [messages.txt|thread.pdf ...]
  cat sms.txt | mobile-money-parser [flags]

Flags:
`

const examplesText = `
Examples:
  # Parse one message from stdin
  echo "SHK1ABC123 Confirmed. Ksh500.00 paid to JAVA HOUSE..." | mobile-money-parser

  # Debit notification and transfer confirmation pasted together
  mobile-money-parser --combined pair.txt

  # Every message of an exported thread, as CSV
  mobile-money-parser --batch --format=csv --output=ledger.csv thread.pdf

  # Try a bundled example
  mobile-money-parser --sample=bank_to_till_combined

  # Run the HTTP API (PORT, LOG_LEVEL, LOG_FORMAT from env or .env)
  mobile-money-parser --serve
`

// options are the parsed command line flags.
type options struct {
	combined bool
	batch    bool
	format   string
	output   string
	header   bool
	sample   string
	list     bool
	serve    bool
	version  bool
	files    []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mobile-money-parser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.BoolVar(&opts.combined, "combined", false, "Correlate a debit notification with its transfer confirmation")
	fs.BoolVar(&opts.batch, "batch", false, "Parse every message in the input separately")
	fs.StringVar(&opts.format, "format", "json", "Output format: json or csv")
	fs.StringVar(&opts.output, "output", "", "Write output to this file instead of stdout")
	fs.BoolVar(&opts.header, "header", true, "Include the column header row in CSV output")
	fs.StringVar(&opts.sample, "sample", "", "Parse a bundled sample message by name")
	fs.BoolVar(&opts.list, "samples", false, "List bundled sample messages and exit")
	fs.BoolVar(&opts.serve, "serve", false, "Start the HTTP API")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
		fmt.Fprint(stderr, examplesText)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	opts.files = fs.Args()

	if opts.version {
		fmt.Fprintf(stdout, "mobile-money-parser v%s\n", api.Version)
		return 0
	}
	if opts.list {
		listSamples(stdout)
		return 0
	}
	if opts.format != "json" && opts.format != "csv" {
		fmt.Fprintf(stderr, "Unknown format %q. Supported: json, csv\n", opts.format)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	log := cfg.Logger()

	if opts.serve {
		if err := serve(cfg, log); err != nil {
			log.Error().Err(err).Msg("server stopped")
			return 1
		}
		return 0
	}

	engine := parser.NewEngine(parser.WithLogger(log))

	text, err := readInput(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(text) == "" {
		fs.Usage()
		return 2
	}

	txns := parseInput(engine, opts, text)

	if err := emit(stdout, opts, txns); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	parsed := 0
	for _, tx := range txns {
		if tx.Success {
			parsed++
		}
	}
	log.Debug().Int("messages", len(txns)).Int("parsed", parsed).Msg("done")
	if parsed == 0 {
		fmt.Fprintln(stderr, "Warning: no transaction could be recognized in the input.")
		return 3
	}
	return 0
}

// readInput collects the text to parse from a sample, files or stdin.
func readInput(opts options, stdin io.Reader) (string, error) {
	if opts.sample != "" {
		s, ok := samples.Get(opts.sample)
		if !ok {
			return "", fmt.Errorf("unknown sample %q (see --samples)", opts.sample)
		}
		return s.Message, nil
	}

	if len(opts.files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	var parts []string
	for _, path := range opts.files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return "", fmt.Errorf("input file not found: %s", path)
		}
		text, err := extractor.ReadFile(path)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(text))
	}
	return strings.Join(parts, "\n\n"), nil
}

func parseInput(engine *parser.Engine, opts options, text string) []models.ParsedTransaction {
	switch {
	case opts.batch:
		return engine.ParseBatch(text)
	case opts.combined:
		tx := engine.ParseCombined(text)
		if !tx.Success {
			tx = engine.Parse(text)
		}
		return []models.ParsedTransaction{tx}
	default:
		return []models.ParsedTransaction{engine.ParseText(text)}
	}
}

// emit writes txns to the -output file when one is given, stdout otherwise.
func emit(stdout io.Writer, opts options, txns []models.ParsedTransaction) error {
	switch {
	case opts.output == "":
		return writeOutput(stdout, opts, txns)
	case opts.format == "csv":
		return csvWriter(opts).WriteToFile(opts.output, txns)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", opts.output, err)
	}
	defer f.Close()
	return writeOutput(f, opts, txns)
}

func csvWriter(opts options) *writer.CSVWriter {
	return &writer.CSVWriter{IncludeHeader: opts.header, IncludeFailed: opts.batch}
}

func writeOutput(out io.Writer, opts options, txns []models.ParsedTransaction) error {
	if opts.format == "csv" {
		return csvWriter(opts).Write(out, txns)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if opts.batch {
		return enc.Encode(txns)
	}
	return enc.Encode(txns[0])
}

func listSamples(out io.Writer) {
	for _, s := range samples.All() {
		fmt.Fprintf(out, "%-26s %s\n", s.Name, s.Label)
	}
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(cfg *config.Config, log zerolog.Logger) error {
	h := api.NewHandler(nil, log, cfg.StaticDir)
	app := api.NewApp(h, cfg.BodyLimit())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("version", api.Version).Msg("listening")
		errCh <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
