package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fuzzycoder/coder"
	"fuzzycoder/internal/app"
	"fuzzycoder/internal/tui"
)

type cliOptions struct {
	configPath  string
	inputPath   string
	projectPath string
	appendPath  string
	exportPath  string
	query       string
	mode        string
	threshold   int
	logPath     string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("fuzzycoder: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fuzzycoder: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to fuzzycoder.yaml (default: ./fuzzycoder.yaml)")
	flag.StringVar(&opts.inputPath, "input", "", "CSV/TSV dataset to start a new project (first column = ids)")
	flag.StringVar(&opts.projectPath, "project", "", "Saved project JSON to load; also the save target")
	flag.StringVar(&opts.appendPath, "append", "", "CSV/TSV dataset to append to the project")
	flag.StringVar(&opts.exportPath, "export", "", "Write the categorized CSV export to this path and exit")
	flag.StringVar(&opts.query, "query", "", "Run one fuzzy match, print the results and exit")
	flag.StringVar(&opts.mode, "mode", "", "Categorization mode for a new project: Single or Multi")
	flag.IntVar(&opts.threshold, "threshold", -1, "Match score display threshold 0-100 (default from config)")
	flag.StringVar(&opts.logPath, "log", "", "Append session logs to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s (--input FILE | --project FILE) [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.projectPath = strings.TrimSpace(opts.projectPath)
	if opts.inputPath == "" && opts.projectPath == "" {
		flag.Usage()
		return opts, errors.New("need --input for a new project or --project to load one")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	threshold := cfg.MatchThreshold
	if opts.threshold >= 0 {
		threshold = opts.threshold
	}

	logger, closeLog, err := openLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	session := app.NewSession(cfg, coder.WeightedScorer{}, logger)

	switch {
	case opts.projectPath != "" && opts.inputPath != "":
		return errors.New("--input and --project are mutually exclusive")
	case opts.projectPath != "":
		if err := session.LoadProjectFile(opts.projectPath); err != nil {
			return fmt.Errorf("load project: %w", err)
		}
	default:
		table, err := coder.ReadTable(opts.inputPath)
		if err != nil {
			return fmt.Errorf("read dataset: %w", err)
		}
		mode := coder.Mode(cfg.DefaultMode)
		if opts.mode != "" {
			mode = coder.Mode(opts.mode)
		}
		if err := session.NewProject(table, mode); err != nil {
			return fmt.Errorf("new project: %w", err)
		}
	}

	if opts.appendPath != "" {
		table, err := coder.ReadTable(opts.appendPath)
		if err != nil {
			return fmt.Errorf("read append dataset: %w", err)
		}
		if err := session.AppendData(table); err != nil {
			return fmt.Errorf("append data: %w", err)
		}
	}

	if opts.exportPath != "" {
		if err := session.ExportCSV(opts.exportPath); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("exported categorized data to %s\n", opts.exportPath)
		return nil
	}

	if opts.query != "" {
		return runQuery(session, opts.query, threshold)
	}

	savePath := opts.projectPath
	if savePath == "" {
		base := strings.TrimSuffix(filepath.Base(opts.inputPath), filepath.Ext(opts.inputPath))
		savePath = base + ".json"
	}
	program := tea.NewProgram(tui.New(session, savePath, threshold), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func runQuery(session *app.Session, query string, threshold int) error {
	if err := session.Match(query); err != nil {
		return fmt.Errorf("match: %w", err)
	}
	results := session.MatchResults(threshold)
	if len(results) == 0 {
		fmt.Printf("no matches for %q at threshold %d\n", query, threshold)
		return nil
	}
	fmt.Printf("matches for %q (threshold %d):\n", query, threshold)
	for _, r := range results {
		fmt.Printf("  %-40s score=%-3d count=%d\n", r.Value.String(), r.Score, r.Count)
	}
	return nil
}

func openLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }, nil
}
