// Package answer turns scraped content into a cited, synthesized answer. It
// scores sentences against the query, deduplicates near-identical phrasing,
// and renders the result per output mode with numbered source citations.
package answer

// Mode selects the synthesis depth and rendering style.
type Mode string

const (
	ModeDefault  Mode = "default"
	ModeDetailed Mode = "detailed"
	ModeConcise  Mode = "concise"
)

// Budget bounds how much content a mode consumes and emits.
type Budget struct {
	MaxPages          int
	SentencesPerPiece int
	MaxLength         int
	Bullet            bool
}

var budgets = map[Mode]Budget{
	ModeDefault:  {MaxPages: 7, SentencesPerPiece: 6, MaxLength: 8000},
	ModeDetailed: {MaxPages: 10, SentencesPerPiece: 12, MaxLength: 15000},
	ModeConcise:  {MaxPages: 4, SentencesPerPiece: 3, MaxLength: 3000, Bullet: true},
}

// ParseMode maps a request string to a known mode, defaulting on anything
// unrecognized.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeDetailed:
		return ModeDetailed
	case ModeConcise:
		return ModeConcise
	default:
		return ModeDefault
	}
}

// Budget returns the mode's budget, falling back to the default mode for
// unknown values.
func (m Mode) Budget() Budget {
	if b, ok := budgets[m]; ok {
		return b
	}
	return budgets[ModeDefault]
}

// Source is a citation target. Index is the 1-based number used in bracketed
// citations within the answer text.
type Source struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Index int    `json:"index"`
}

// ContentPiece is one body of text feeding synthesis, tagged with the source
// it cites and a priority tier: 10 instant answers, 6 Wikipedia, 5 scraped
// pages, 2 snippet fallbacks for failed scrapes, 1 snippet-only sources.
type ContentPiece struct {
	Content     string
	SourceIndex int
	Headings    []string
	Description string
	ListItems   []string
	Priority    int
}

// Result is a complete answer payload.
type Result struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Related []string `json:"related"`
	Title   string   `json:"title"`
	Cached  bool     `json:"cached"`
}
