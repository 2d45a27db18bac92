package answer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Per-query-type sentence boosts.
var (
	definitionHintRe = regexp.MustCompile(`\bis a\b|\bare\b|\brefers to\b|\bdefined as\b|\bmeans\b|\bknown as\b|\bis the\b`)
	howtoHintRe      = regexp.MustCompile(`step|method|process|guide|you can|you should|first|then|next|finally`)
	numberedRe       = regexp.MustCompile(`^\d+[.)]\s`)
	comparisonHintRe = regexp.MustCompile(`however|while|whereas|unlike|compared|difference|better|worse|advantage|disadvantage`)
	listHintRe       = regexp.MustCompile(`^\d+[.)]\s|^[-•]\s|best|top|recommended|popular`)
	currentHintRe    = regexp.MustCompile(`202[4-9]|latest|recently|announced|released|updated|new `)
	causalHintRe     = regexp.MustCompile(`because|reason|due to|caused by|result of|therefore|since`)
)

// General quality signals and penalties.
var (
	attributionRe = regexp.MustCompile(`according to|research|study|found that|shows? that|reported|announced|revealed`)
	yearRe        = regexp.MustCompile(`\d{4}|since \d|in \d`)
	statsRe       = regexp.MustCompile(`\d+(\.\d+)?%|\$[\d,]+|\d+ (million|billion|trillion)`)
	emphasisRe    = regexp.MustCompile(`first|largest|most|key|significant|important|major|primary`)
	connectiveRe  = regexp.MustCompile(`because|therefore|as a result|this means|for example|such as|including`)
	boilerplateRe = regexp.MustCompile(`cookie|privacy policy|terms of (service|use)|subscribe|sign up|log in|click here|advertisement|accept all|consent`)
	markupRe      = regexp.MustCompile(`\|\s*\||\{\{|\}\}|function\(|var |const |class `)
)

type scoredSentence struct {
	text        string
	score       float64
	sourceIndex int
	position    int
}

// Synthesize builds a cited answer from content pieces. Sentences from every
// piece are scored against the query, the best are selected globally with
// per-source caps and near-duplicate suppression, then grouped by source and
// rendered per mode.
func Synthesize(query string, pieces []ContentPiece, mode Mode) string {
	if len(pieces) == 0 {
		return "No relevant content found for this query."
	}

	budget := mode.Budget()
	queryType := DetectQueryType(query)
	tokens := Keywords(query)

	ordered := append([]ContentPiece{}, pieces...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	var scored []scoredSentence
	for _, piece := range ordered {
		if len(piece.Content) < 20 {
			continue
		}
		for pos, sentence := range SplitSentences(piece.Content) {
			score := scoreSentence(sentence, pos, queryType, tokens)
			score += float64(piece.Priority) * 0.5
			if score > 0 {
				scored = append(scored, scoredSentence{
					text:        sentence,
					score:       score,
					sourceIndex: piece.SourceIndex,
					position:    pos,
				})
			}
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	maxTotal := budget.SentencesPerPiece * min(len(ordered), budget.MaxPages)
	var selected []scoredSentence
	perSource := make(map[int]int)
	for _, s := range scored {
		if len(selected) >= maxTotal {
			break
		}
		dup := false
		for _, have := range selected {
			if Similar(s.text, have.text) {
				dup = true
				break
			}
		}
		if dup || perSource[s.sourceIndex] >= budget.SentencesPerPiece {
			continue
		}
		selected = append(selected, s)
		perSource[s.sourceIndex]++
	}

	if len(selected) == 0 {
		fallback := strings.TrimSpace(firstN(ordered[0].Content, 500))
		if fallback != "" {
			return fmt.Sprintf("%s [%d]", fallback, ordered[0].SourceIndex)
		}
		return "Could not extract relevant information. Please check the sources below."
	}

	return render(query, queryType, mode, budget, ordered, selected)
}

func scoreSentence(sentence string, position int, queryType QueryType, tokens []string) float64 {
	lower := strings.ToLower(sentence)
	var score float64

	matched := 0
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			score += 3
			matched++
		}
	}
	if len(tokens) > 0 && float64(matched)/float64(len(tokens)) > 0.6 {
		score += 4
	}

	switch queryType {
	case TypeDefinition:
		if definitionHintRe.MatchString(sentence) {
			score += 5
		}
	case TypeHowTo:
		if howtoHintRe.MatchString(lower) {
			score += 4
		}
		if numberedRe.MatchString(sentence) {
			score += 3
		}
	case TypeComparison:
		if comparisonHintRe.MatchString(lower) {
			score += 4
		}
	case TypeList:
		if listHintRe.MatchString(sentence) {
			score += 3
		}
	case TypeCurrent:
		if currentHintRe.MatchString(lower) {
			score += 4
		}
	case TypeExplanation:
		if causalHintRe.MatchString(lower) {
			score += 4
		}
	}

	if attributionRe.MatchString(lower) {
		score += 2
	}
	if yearRe.MatchString(sentence) {
		score += 1.5
	}
	if statsRe.MatchString(sentence) {
		score += 2.5
	}
	if emphasisRe.MatchString(lower) {
		score += 1
	}
	if connectiveRe.MatchString(lower) {
		score += 1.5
	}

	if position < 3 {
		score += 2
	}
	if position < 8 {
		score++
	}

	if boilerplateRe.MatchString(lower) {
		score -= 20
	}
	if markupRe.MatchString(sentence) {
		score -= 15
	}
	if len(strings.Fields(sentence)) < 4 {
		score -= 5
	}
	return score
}

func render(query string, queryType QueryType, mode Mode, budget Budget, pieces []ContentPiece, selected []scoredSentence) string {
	grouped := make(map[int][]scoredSentence)
	for _, s := range selected {
		grouped[s.sourceIndex] = append(grouped[s.sourceIndex], s)
	}
	for idx := range grouped {
		group := grouped[idx]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].position < group[j].position
		})
	}

	// Sources with the strongest sentences lead the answer.
	sourceOrder := make([]int, 0, len(grouped))
	for idx := range grouped {
		sourceOrder = append(sourceOrder, idx)
	}
	sort.SliceStable(sourceOrder, func(i, j int) bool {
		return maxScore(grouped[sourceOrder[i]]) > maxScore(grouped[sourceOrder[j]])
	})

	var paragraphs []string
	if mode == ModeDetailed {
		paragraphs = append(paragraphs, "## "+query+"\n")
	}

	for _, srcIdx := range sourceOrder {
		group := grouped[srcIdx]
		texts := make([]string, len(group))
		for i, s := range group {
			texts[i] = s.text
		}

		if budget.Bullet {
			bullets := make([]string, len(texts))
			for i, t := range texts {
				bullets[i] = "• " + t
			}
			paragraphs = append(paragraphs, strings.Join(bullets, "\n")+fmt.Sprintf(" [%d]", srcIdx))
			continue
		}
		if mode == ModeDetailed {
			if heading := sourceHeading(pieces, srcIdx); heading != "" {
				paragraphs = append(paragraphs, "### "+heading)
			}
		}
		paragraphs = append(paragraphs, strings.Join(texts, " ")+fmt.Sprintf(" [%d]", srcIdx))
	}

	if queryType == TypeList || queryType == TypeHowTo {
		if points := keyPoints(pieces); len(points) > 2 {
			bullets := make([]string, 0, 8)
			for _, item := range points[:min(len(points), 8)] {
				bullets = append(bullets, "• "+item)
			}
			paragraphs = append(paragraphs, "\n**Key Points:**", strings.Join(bullets, "\n"))
		}
	}

	if mode == ModeDetailed && len(paragraphs) > 2 {
		paragraphs = append(paragraphs, "\n---",
			fmt.Sprintf("*Compiled from %d sources across the web.*", len(grouped)))
	}
	if mode == ModeConcise {
		paragraphs = append(paragraphs, "\n*Concise summary — select Default or Detailed mode for more information.*")
	}

	result := strings.Join(paragraphs, "\n\n")
	if len(result) > budget.MaxLength {
		result = truncateAtRune(result, budget.MaxLength)
		if lastPeriod := strings.LastIndex(result, "."); lastPeriod > budget.MaxLength*7/10 {
			result = result[:lastPeriod+1]
		}
	}
	if result == "" {
		return "Could not generate an answer. Please check the sources below."
	}
	return result
}

// sourceHeading picks a sub-heading for a source group in detailed mode: the
// piece's first heading, falling back to its description.
func sourceHeading(pieces []ContentPiece, sourceIndex int) string {
	for _, piece := range pieces {
		if piece.SourceIndex != sourceIndex {
			continue
		}
		heading := ""
		if len(piece.Headings) > 0 {
			heading = piece.Headings[0]
		}
		if heading == "" {
			heading = piece.Description
		}
		if len(heading) > 5 && len(heading) < 100 {
			return heading
		}
		return ""
	}
	return ""
}

// keyPoints gathers deduplicated list items from the leading pieces.
func keyPoints(pieces []ContentPiece) []string {
	var points []string
	for _, piece := range pieces[:min(len(pieces), 3)] {
		items := piece.ListItems
		for _, item := range items[:min(len(items), 8)] {
			if len(item) <= 15 {
				continue
			}
			dup := false
			for _, have := range points {
				if Similar(have, item) {
					dup = true
					break
				}
			}
			if !dup {
				points = append(points, item)
			}
		}
	}
	return points
}

// truncateAtRune byte-caps s without splitting a UTF-8 sequence.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func maxScore(group []scoredSentence) float64 {
	best := group[0].score
	for _, s := range group[1:] {
		if s.score > best {
			best = s.score
		}
	}
	return best
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
