// Package worker runs heavyweight jobs (image analysis, news digests) in a
// child process so a crash or runaway job cannot take the server down. The
// child writes a single JSON document to stdout; logs go to stderr.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickcity/sift/pkg/answer"
	"github.com/wickcity/sift/pkg/news"
	"github.com/wickcity/sift/pkg/vision"
)

const (
	imageTimeout = 120 * time.Second
	newsTimeout  = 90 * time.Second
	maxOutput    = 5 * 1024 * 1024
)

// ImageResult is an answer enriched with the image analysis that produced
// its search query.
type ImageResult struct {
	answer.Result
	ImageAnalysis *vision.Analysis `json:"imageAnalysis,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Runner spawns the worker binary and decodes its output.
type Runner struct {
	binary string
	log    zerolog.Logger

	execFn func(ctx context.Context, binary string, args ...string) ([]byte, []byte, error)
}

// NewRunner targets the given worker binary (typically "sift-worker" on
// PATH, or a sibling of the server binary).
func NewRunner(binary string, log zerolog.Logger) *Runner {
	return &Runner{
		binary: binary,
		log:    log.With().Str("component", "worker").Logger(),
		execFn: runBinary,
	}
}

func runBinary(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, n: maxOutput}
	cmd.Stderr = &limitedWriter{w: &stderr, n: maxOutput}
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ImageSearch analyzes an uploaded image and searches the web for its
// content in a child process.
func (r *Runner) ImageSearch(ctx context.Context, imagePath, extraQuery string) (*ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	args := []string{"image", imagePath}
	if extraQuery != "" {
		args = append(args, extraQuery)
	}
	var result ImageResult
	if err := r.run(ctx, args, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("image worker: %s", result.Error)
	}
	return &result, nil
}

// News builds the headline digest in a child process.
func (r *Runner) News(ctx context.Context) (*news.Digest, error) {
	ctx, cancel := context.WithTimeout(ctx, newsTimeout)
	defer cancel()

	var digest news.Digest
	if err := r.run(ctx, []string{"news"}, &digest); err != nil {
		return nil, err
	}
	return &digest, nil
}

func (r *Runner) run(ctx context.Context, args []string, out any) error {
	start := time.Now()
	stdout, stderr, err := r.execFn(ctx, r.binary, args...)
	if len(stderr) > 0 {
		r.log.Debug().Str("job", args[0]).Bytes("stderr", stderr[:min(len(stderr), 500)]).
			Msg("worker log output")
	}
	if err != nil {
		// The worker may still have written a structured result before
		// exiting nonzero; prefer that over the bare exec error.
		if jsonErr := json.Unmarshal(stdout, out); jsonErr == nil {
			r.log.Warn().Err(err).Str("job", args[0]).Msg("worker exited nonzero with output")
			return nil
		}
		return fmt.Errorf("running %s worker: %w", args[0], err)
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return fmt.Errorf("parsing %s worker output: %w", args[0], err)
	}
	r.log.Info().Str("job", args[0]).Dur("elapsed", time.Since(start)).Msg("worker finished")
	return nil
}

// limitedWriter discards bytes past n, protecting against a worker that
// floods its pipes.
type limitedWriter struct {
	w *bytes.Buffer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if remaining := l.n - l.w.Len(); remaining > 0 {
		l.w.Write(p[:min(len(p), remaining)])
	}
	return len(p), nil
}
