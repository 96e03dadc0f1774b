// Command ask answers one question against a local RMA export and prints the
// detected intent, its parameters and the answer.
//
// Usage:
//
//	ask -data rma.csv "khách hàng nào gửi nhiều nhất năm 2024"
//
// With -llm, questions no rule recognizes go to the LLM providers configured
// through the usual RMA_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/rmadesk/rma-qa/internal/assistant"
	"github.com/rmadesk/rma-qa/internal/buildinfo"
	"github.com/rmadesk/rma-qa/internal/columns"
	"github.com/rmadesk/rma-qa/internal/config"
	"github.com/rmadesk/rma-qa/internal/dataset"
	"github.com/rmadesk/rma-qa/internal/engine"
	"github.com/rmadesk/rma-qa/internal/genai"
	"github.com/rmadesk/rma-qa/internal/logger"
)

type options struct {
	data     string
	aliases  string
	topN     int
	asJSON   bool
	useLLM   bool
	logLevel string
	question string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.data, "data", os.Getenv(config.EnvDatasetPath), "CSV / .csv.zst file or directory of exports")
	fs.StringVar(&opts.aliases, "aliases", os.Getenv(config.EnvAliasFile), "optional YAML column alias overrides")
	fs.IntVar(&opts.topN, "top", 5, "entries in ranked answers (1 = single winner sentence)")
	fs.BoolVar(&opts.asJSON, "json", false, "print the full reply as JSON")
	fs.BoolVar(&opts.useLLM, "llm", false, "answer unrecognized questions with the configured LLM providers")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	version := fs.Bool("version", false, "print build information and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		_, _ = fmt.Fprintln(stdout, buildinfo.Release())
		return 0
	}
	opts.question = strings.Join(fs.Args(), " ")

	if err := ask(context.Background(), opts, stdout, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "ask: %v\n", err)
		return 1
	}
	return 0
}

func ask(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if opts.data == "" {
		return errors.New("-data is required")
	}
	if strings.TrimSpace(opts.question) == "" {
		return errors.New("a question is required")
	}

	aliases, err := columns.LoadAliases(opts.aliases)
	if err != nil {
		return err
	}

	store := dataset.NewStore(opts.data, nil)
	if _, err := store.Reload(ctx); err != nil {
		return err
	}

	log := logger.NewWithWriter(opts.logLevel, stderr)
	cfg := assistant.ProcessorConfig{
		Engine: engine.New(engine.WithTopN(opts.topN), engine.WithAliases(aliases)),
		Source: store,
		Logger: log,
	}

	if opts.useLLM {
		appCfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("llm config: %w", err)
		}
		answerer, err := genai.CreateAnswerer(ctx, appCfg.LLMConfig(), nil)
		if err != nil {
			return fmt.Errorf("llm: %w", err)
		}
		if answerer != nil {
			defer func() { _ = answerer.Close() }()
			cfg.Answerer = answerer
		}
		cfg.PromptMaxRows = appCfg.PromptMaxRows
		cfg.LLMTimeout = appCfg.LLMTimeout
	}

	reply, err := assistant.NewProcessor(cfg).Ask(ctx, opts.question, "cli")
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(reply)
	}
	printReply(stdout, reply)
	return nil
}

func printReply(w io.Writer, reply *assistant.Reply) {
	_, _ = fmt.Fprintf(w, "intent: %s\n", reply.Intent)
	_, _ = fmt.Fprintln(w, "params:")
	for _, k := range slices.Sorted(maps.Keys(reply.Params)) {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, reply.Params[k])
	}
	_, _ = fmt.Fprintf(w, "source: %s\n", reply.Source)
	_, _ = fmt.Fprintf(w, "rows: %d\n", reply.RowCount)
	_, _ = fmt.Fprintf(w, "answer: %s\n", reply.Answer)
}
