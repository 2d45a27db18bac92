// Package vision analyzes uploaded images the way a lens-style search does:
// OCR for embedded text, plus metadata and color analysis, feeding a
// generated web search query.
package vision

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wickcity/sift/pkg/extract"
)

// Analysis is everything learned about one image.
type Analysis struct {
	OCRText         string      `json:"ocrText"`
	OCRConfidence   float64     `json:"ocrConfidence"`
	ImageProperties *Properties `json:"imageProperties"`
	SearchQuery     string      `json:"searchQuery"`
	SearchType      string      `json:"searchType"`
	Description     string      `json:"description"`
}

// Analyzer runs OCR and property analysis. The OCR step is replaceable for
// tests and for hosts without tesseract installed.
type Analyzer struct {
	log zerolog.Logger
	ocr func(ctx context.Context, path string) (*OCRResult, error)
}

// NewAnalyzer builds an analyzer backed by the tesseract binary.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "vision").Logger(),
		ocr: runTesseract,
	}
}

// Analyze inspects an image file. OCR and property analysis run in parallel;
// either failing alone still produces a usable analysis.
func (a *Analyzer) Analyze(ctx context.Context, path string) *Analysis {
	var (
		ocr   *OCRResult
		props *Properties
	)
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		if ocr, err = a.ocr(ctx, path); err != nil {
			a.log.Warn().Err(err).Msg("ocr failed")
			ocr = &OCRResult{}
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if props, err = ReadProperties(path); err != nil {
			a.log.Warn().Err(err).Msg("property analysis failed")
		}
		return nil
	})
	_ = eg.Wait()

	query, queryType, desc := buildQuery(ocr, props)
	a.log.Info().Str("type", queryType).Str("query", extract.Truncate(query, 100)).
		Msg("image analyzed")

	return &Analysis{
		OCRText:         ocr.Text,
		OCRConfidence:   ocr.Confidence,
		ImageProperties: props,
		SearchQuery:     query,
		SearchType:      queryType,
		Description:     desc,
	}
}

const minOCRConfidence = 30

var (
	symbolOnlyRe  = regexp.MustCompile(`^[^a-zA-Z0-9]*$`)
	ocrArtifactRe = regexp.MustCompile(`[|{}\\\[\]~` + "`" + `<>]`)
)

// buildQuery turns OCR output and image properties into a web search query,
// preferring recognized text, then document heuristics, then a visual
// description.
func buildQuery(ocr *OCRResult, props *Properties) (query, queryType, description string) {
	if len(ocr.Text) > 3 && ocr.Confidence > minOCRConfidence {
		var lines []string
		for _, line := range strings.Split(ocr.Text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 2 && !symbolOnlyRe.MatchString(line) {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			joined := strings.Join(lines[:min(len(lines), 5)], " ")
			cleaned := extract.CleanText(ocrArtifactRe.ReplaceAllString(joined, ""))
			if len(cleaned) > 3 {
				return extract.Truncate(cleaned, 200), "text", "Text extracted from image"
			}
		}
	}

	if props != nil && props.IsDocumentLike {
		query := "document image"
		if ocr.Text != "" {
			query = extract.Truncate(ocr.Text, 200)
		}
		return query, "document", "Document-like image detected"
	}

	if props != nil {
		aspect, _ := strconv.ParseFloat(props.AspectRatio, 64)
		shape := "standard"
		if aspect > 1.5 {
			shape = "panoramic"
		} else if aspect < 0.7 {
			shape = "portrait"
		}
		return props.DominantColor + " " + shape + " image", "visual",
			"Image analysis based on visual properties"
	}

	return "image search", "unknown", "Could not fully analyze image"
}
