package pdfutils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Tesseract locates and runs the tesseract binary.
type Tesseract struct {
	Path    string
	Lang    string
	DataDir string
}

// Check verifies that the binary exists and that every language in Lang
// ("eng+deu") is installed.
func (t Tesseract) Check() error {
	if t.Path == "tesseract" {
		if _, err := exec.LookPath("tesseract"); err != nil {
			return fmt.Errorf("tesseract not found in PATH: %w", err)
		}
	} else if _, err := os.Stat(t.Path); err != nil {
		return fmt.Errorf("tesseract not found: %w", err)
	}

	listArgs := []string{"--list-langs"}
	if t.DataDir != "" {
		listArgs = []string{"--tessdata-dir", t.DataDir, "--list-langs"}
	}

	cmd := exec.Command(t.Path, listArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("list tesseract languages: %w", err)
	}

	installed := map[string]bool{}
	for _, line := range strings.Split(string(out), "\n") {
		installed[strings.Trim(line, "\r\n ")] = true
	}

	for _, lang := range strings.Split(t.Lang, "+") {
		if !installed[lang] {
			return fmt.Errorf("tesseract language `%s` not installed", lang)
		}
	}

	return nil
}

// OCR returns the text recognised in img with whitespace condensed.
func (t Tesseract) OCR(img image.Image) (string, error) {
	tessArgs := []string{"stdin", "stdout", "--dpi", "300", "-l", t.Lang}

	if t.DataDir != "" {
		tessArgs = append(tessArgs, "--tessdata-dir", t.DataDir)
	}

	cmd := exec.Command(t.Path, tessArgs...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", err
	}

	encodeErr := make(chan error, 1)
	go func() {
		defer stdin.Close()
		encodeErr <- png.Encode(stdin, img)
	}()

	var out bytes.Buffer
	cmd.Stdout = &out

	err = cmd.Run()
	if err != nil {
		if encErr := <-encodeErr; encErr != nil && !errors.Is(encErr, os.ErrClosed) && !errors.Is(encErr, syscall.EPIPE) {
			return "", fmt.Errorf("encode image for tesseract: %w", encErr)
		}
		return "", err
	}

	return strings.TrimSpace(CondenseSpaces(out.String())), nil
}
