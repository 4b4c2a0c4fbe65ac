package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/szktty/trompe/internal/config"
)

// TestFunctional runs the scenario files in testdata through the compiled
// binary and compares the output with the matching .want files.
func TestFunctional(t *testing.T) {
	projectRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}

	binaryPath := filepath.Join(t.TempDir(), "trompe-test-binary")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/trompe")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, output)
	}

	var testFiles []string
	for _, ext := range config.ScenarioFileExtensions {
		matches, err := filepath.Glob(filepath.Join("testdata", "*"+ext))
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range matches {
			wantFile := strings.TrimSuffix(m, ext) + ".want"
			if _, err := os.Stat(wantFile); err == nil {
				testFiles = append(testFiles, m)
			}
		}
	}
	if len(testFiles) == 0 {
		t.Skip("No scenario files with .want found")
	}

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), filepath.Ext(testFile))

		t.Run(testName, func(t *testing.T) {
			absPath, err := filepath.Abs(testFile)
			if err != nil {
				t.Fatalf("Failed to get absolute path: %v", err)
			}
			wantBytes, err := os.ReadFile(strings.TrimSuffix(testFile, filepath.Ext(testFile)) + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}

			cmd := exec.Command(binaryPath, absPath)
			cmd.Dir = projectRoot
			cmd.Env = append(os.Environ(), config.TestModeEnv+"=1")
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			_ = cmd.Run()

			got := strings.TrimSpace(stdout.String())
			if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
				got += "\n" + errOut
			}
			got = strings.ReplaceAll(got, projectRoot+string(filepath.Separator), "")
			got = strings.TrimSpace(strings.ReplaceAll(got, "\r\n", "\n"))
			want := strings.TrimSpace(strings.ReplaceAll(string(wantBytes), "\r\n", "\n"))

			if got != want {
				t.Errorf("Output mismatch:\n--- want ---\n%s\n--- got ---\n%s", want, got)
			}
		})
	}
}
