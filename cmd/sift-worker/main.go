// Command sift-worker runs the isolated jobs the server shells out to:
// image analysis plus search, and the news digest. Results go to stdout as
// a single JSON document; all logging goes to stderr.
//
// Usage:
//
//	sift-worker image <path> [query]
//	sift-worker news
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/config"
	"github.com/wickcity/sift/pkg/extract"
	"github.com/wickcity/sift/pkg/fetch"
	"github.com/wickcity/sift/pkg/news"
	"github.com/wickcity/sift/pkg/pipeline"
	"github.com/wickcity/sift/pkg/search"
	"github.com/wickcity/sift/pkg/vision"
	"github.com/wickcity/sift/pkg/worker"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIFT_CONFIG"), "path to the YAML config file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().
		Timestamp().Str("component", "worker").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		emit(worker.ImageResult{Error: "config error: " + err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.NewClient(&cfg.Fetch, logger)
	defer fetcher.Close()

	switch flag.Arg(0) {
	case "image":
		path := flag.Arg(1)
		if path == "" {
			emit(worker.ImageResult{Error: "no image path provided"})
			os.Exit(1)
		}
		runImage(ctx, cfg, fetcher, logger, path, flag.Arg(2))
	case "news":
		runNews(ctx, fetcher, logger)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s image <path> [query] | news\n", os.Args[0])
		os.Exit(2)
	}
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encoding output:", err)
		os.Exit(1)
	}
}

func runImage(ctx context.Context, cfg *config.Config, fetcher *fetch.Client, logger zerolog.Logger, path, extraQuery string) {
	analyzer := vision.NewAnalyzer(logger)
	analysis := analyzer.Analyze(ctx, path)

	query := strings.TrimSpace(extraQuery)
	switch {
	case query != "":
		logger.Info().Str("query", query).Msg("using user query")
	case len(analysis.SearchQuery) > 3:
		query = analysis.SearchQuery
		logger.Info().Str("query", query).Msg("using analysis query")
	default:
		emit(analysisOnlyResult(analysis))
		return
	}

	orchestrator := search.NewOrchestrator(&cfg.Search, fetcher, logger)
	answers := pipeline.New(fetcher, orchestrator, logger)
	result := answers.Answer(ctx, query, answer.ModeDefault)

	if len(analysis.OCRText) > 3 {
		quoted := strings.ReplaceAll(extract.Truncate(analysis.OCRText, 300), "\n", "\n> ")
		result.Answer = "**Text extracted from image:**\n> " + quoted + "\n\n---\n\n" + result.Answer
	}
	result.Title = query
	emit(worker.ImageResult{Result: *result, ImageAnalysis: analysis})
}

// analysisOnlyResult renders what was learned about an image when neither
// OCR nor the user supplied anything searchable.
func analysisOnlyResult(analysis *vision.Analysis) worker.ImageResult {
	var b strings.Builder
	b.WriteString("**Image Analysis Results**\n\n")
	b.WriteString("I analyzed the uploaded image but could not extract enough text or identify specific content to search for.\n\n")
	b.WriteString("**What I found:**\n")
	if props := analysis.ImageProperties; props != nil {
		fmt.Fprintf(&b, "- **Image size:** %dx%d pixels\n", props.Width, props.Height)
		fmt.Fprintf(&b, "- **Format:** %s\n", valueOr(props.Format, "unknown"))
		fmt.Fprintf(&b, "- **Dominant color:** %s\n", valueOr(props.DominantColor, "unknown"))
		fmt.Fprintf(&b, "- **Aspect ratio:** %s\n", valueOr(props.AspectRatio, "unknown"))
	} else {
		b.WriteString("- Could not read image properties\n")
	}
	if analysis.OCRText != "" {
		b.WriteString("\n**Detected text:**\n")
		b.WriteString(extract.Truncate(analysis.OCRText, 500))
	} else {
		b.WriteString("\n- No text detected in image")
	}
	b.WriteString("\n\n**Tip:** Try adding a question about the image in the search bar for better results.")

	return worker.ImageResult{
		Result: answer.Result{
			Answer:  b.String(),
			Sources: []answer.Source{},
			Related: []string{
				"How to identify objects in images?",
				"What is optical character recognition (OCR)?",
				"Image recognition technology explained",
				"How does Google Lens work?",
				"Computer vision applications",
			},
			Title: "Image Analysis",
		},
		ImageAnalysis: analysis,
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func runNews(ctx context.Context, fetcher *fetch.Client, logger zerolog.Logger) {
	scraper := news.NewScraper(fetcher, logger)
	digest := scraper.Latest(ctx)
	logger.Info().Int("articles", len(digest.NewsArticles)).Msg("news digest built")
	emit(digest)
}
