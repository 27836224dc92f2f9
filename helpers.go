package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

func endIfErr(e error) {
	if e != nil {
		slog.Error("pdfannotate failed", "error", e)
		os.Exit(1)
	}
}

// load merges the -t terms with the lines of the terms file. Blank lines in
// the file are skipped; terms given with -t are kept verbatim.
func (f termFlags) load() ([]string, error) {
	terms := append([]string{}, f.Terms...)

	if f.TermsFile == "" {
		return terms, nil
	}

	file, err := os.Open(f.TermsFile)
	if err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if t := strings.TrimSpace(scanner.Text()); t != "" {
			terms = append(terms, t)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read terms %s: %w", f.TermsFile, err)
	}

	return terms, nil
}
