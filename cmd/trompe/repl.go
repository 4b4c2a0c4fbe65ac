package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/szktty/trompe/internal/scenario"
)

const (
	promptMain  = "trompe> "
	historyFile = ".trompe_history"
)

const replHelp = `Each line is one check in YAML flow style, for example:
  {unify: {expected: "?a", actual: {list: int}}}
  {use: {value: fst, type: {fun: [{tuple: [int, bool]}], return: "?r"}}}
  {resolve: A.B}
  {lookup: A.x, scope: D}
Commands: :help, :quit`

// historyPath returns the history file in the home directory. History is
// not kept when the home directory is unknown.
func historyPath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, historyFile), true
}

// repl runs checks typed one per line against the forest of file, or
// against the prelude alone when file is empty.
func repl(file string, p *printer) error {
	var doc *scenario.Document
	if file != "" {
		var err error
		if doc, err = scenario.Load(file); err != nil {
			return err
		}
	}
	session, err := scenario.NewSession(doc)
	if err != nil {
		return err
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath, ok := historyPath(); ok {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(p.w)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":help", ":h":
			fmt.Fprintln(p.w, replHelp)
			continue
		}
		ln.AppendHistory(line)

		check, err := scenario.ParseCheck([]byte(line))
		if err != nil {
			fmt.Fprintf(p.w, "error: %s\n", err)
			continue
		}
		if check.Name == "" {
			check.Name = line
		}
		res := session.Check(check)
		p.result(res)
		if res.Passed && res.Detail != "" {
			fmt.Fprintf(p.w, "       %s\n", res.Detail)
		}
	}
}
