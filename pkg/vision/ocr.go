package vision

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// OCRResult is recognized text plus tesseract's mean word confidence.
type OCRResult struct {
	Text       string
	Confidence float64
}

// runTesseract shells out to the tesseract binary in TSV mode, which carries
// per-word confidence alongside the text. A missing binary or failed run is
// not an error to callers; OCR is best-effort.
func runTesseract(ctx context.Context, imagePath string) (*OCRResult, error) {
	cmd := exec.CommandContext(ctx, "tesseract", imagePath, "stdout", "-l", "eng", "tsv")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return parseTSV(stdout.String()), nil
}

// parseTSV extracts words and averages their confidence from tesseract TSV
// output. Line breaks in the source layout are preserved as newlines.
func parseTSV(tsv string) *OCRResult {
	var words []string
	var confSum float64
	var confCount int
	lastLine := -1

	var text strings.Builder
	flushLine := func() {
		if len(words) > 0 {
			if text.Len() > 0 {
				text.WriteByte('\n')
			}
			text.WriteString(strings.Join(words, " "))
			words = words[:0]
		}
	}

	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 {
			continue // header
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}
		lineNum, _ := strconv.Atoi(fields[4])
		if lastLine != -1 && lineNum != lastLine {
			flushLine()
		}
		lastLine = lineNum
		words = append(words, word)
		confSum += conf
		confCount++
	}
	flushLine()

	result := &OCRResult{Text: strings.TrimSpace(text.String())}
	if confCount > 0 {
		result.Confidence = confSum / float64(confCount)
	}
	return result
}
