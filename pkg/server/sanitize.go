package server

import (
	"regexp"

	"github.com/wickcity/sift/pkg/answer"
)

const maxSourceTitleLen = 250

// controlCharRe matches control characters that break JSON consumers.
// Tab, LF, and CR survive; everything else below 0x20 goes.
var controlCharRe = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")

// sanitizeResult returns a copy of the result safe to cache and serve:
// control characters stripped from the answer and source titles capped.
func sanitizeResult(result *answer.Result) *answer.Result {
	clean := &answer.Result{
		Answer:  controlCharRe.ReplaceAllString(result.Answer, ""),
		Title:   result.Title,
		Related: append([]string(nil), result.Related...),
		Sources: make([]answer.Source, len(result.Sources)),
	}
	for i, src := range result.Sources {
		if len(src.Title) > maxSourceTitleLen {
			src.Title = src.Title[:maxSourceTitleLen]
		}
		clean.Sources[i] = src
	}
	return clean
}
