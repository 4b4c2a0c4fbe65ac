package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/szktty/trompe/internal/config"
	"github.com/szktty/trompe/internal/scenario"
)

const usage = `Usage: %s [-debug] [-config path] [file|dir ...]
       %s -repl [file]

Runs scenario files against the type checker core. With no arguments the
scenarios listed in trompe.yaml are run. With -repl, checks are read
interactively and run against the modules of file.
`

type options struct {
	debug      bool
	repl       bool
	configPath string
	args       []string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-debug", "--debug":
			opts.debug = true
		case "-repl", "--repl":
			opts.repl = true
		case "-config", "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.configPath = args[i]
		case "-h", "-help", "--help":
			return nil, errHelp
		default:
			if len(arg) > 1 && arg[0] == '-' {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			opts.args = append(opts.args, arg)
		}
	}
	if opts.repl && len(opts.args) > 1 {
		return nil, errors.New("-repl takes at most one file")
	}
	return opts, nil
}

var errHelp = errors.New("help requested")

func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return config.Default(), nil
		}
		path = found
	}
	return config.LoadConfig(path)
}

// collectFiles expands directories to the scenario files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && config.HasScenarioExt(entry.Name()) {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return files, nil
}

func useColor(cfg *config.Config, out *os.File) bool {
	switch cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
}

type printer struct {
	w     io.Writer
	color bool
}

func (p *printer) status(passed bool) string {
	switch {
	case passed && p.color:
		return "\033[32mPASS\033[0m"
	case passed:
		return "PASS"
	case p.color:
		return "\033[31mFAIL\033[0m"
	}
	return "FAIL"
}

func (p *printer) result(res scenario.Result) {
	fmt.Fprintf(p.w, "  %s %s", p.status(res.Passed), res.Name)
	if !res.Passed {
		fmt.Fprintf(p.w, " (got %s)", res.Outcome)
	}
	fmt.Fprintln(p.w)
	if res.Detail != "" && !res.Passed {
		fmt.Fprintf(p.w, "       %s\n", res.Detail)
	}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.Attr{}
	}
	return a
}

func run(ctx context.Context, opts *options) (bool, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return false, err
	}

	level := cfg.SlogLevel()
	if opts.debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if config.IsTestMode {
		handlerOpts.ReplaceAttr = dropTime
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, handlerOpts))
	slog.SetDefault(logger)

	p := &printer{w: os.Stdout, color: useColor(cfg, os.Stdout)}
	if opts.repl {
		file := ""
		if len(opts.args) == 1 {
			file = opts.args[0]
		}
		return true, repl(file, p)
	}

	files, err := collectFiles(opts.args)
	if err != nil {
		return false, err
	}
	if len(opts.args) == 0 {
		if files, err = cfg.ScenarioFiles(); err != nil {
			return false, err
		}
	}
	if len(files) == 0 {
		fmt.Println("No scenario files found")
		return true, nil
	}

	runner := &scenario.Runner{Config: cfg, Logger: logger}
	ok := true
	passed, total := 0, 0
	for _, file := range files {
		fmt.Printf("=== %s ===\n", file)
		doc, err := scenario.Load(file)
		if err != nil {
			return false, err
		}
		results, err := runner.Run(ctx, doc)
		for _, res := range results {
			p.result(res)
			total++
			if res.Passed {
				passed++
			} else {
				ok = false
			}
		}
		if err != nil {
			return false, err
		}
		if !ok && cfg.FailFast {
			break
		}
	}
	fmt.Printf("\n%d/%d checks passed\n", passed, total)
	return ok, nil
}

func main() {
	if os.Getenv(config.TestModeEnv) == "1" {
		config.IsTestMode = true
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, usage, name, name)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
