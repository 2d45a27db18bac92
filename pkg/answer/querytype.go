package answer

import (
	"regexp"
	"strings"
)

// QueryType classifies the intent of a query; each type gets its own sentence
// boosts during synthesis.
type QueryType string

const (
	TypeDefinition  QueryType = "definition"
	TypeHowTo       QueryType = "howto"
	TypeComparison  QueryType = "comparison"
	TypeFactual     QueryType = "factual"
	TypeList        QueryType = "list"
	TypeCurrent     QueryType = "current"
	TypeExplanation QueryType = "explanation"
	TypeGeneral     QueryType = "general"
)

var (
	definitionRe  = regexp.MustCompile(`^(what|define|who|meaning)\b`)
	definitionQRe = regexp.MustCompile(`\bis\b.*\?$`)
	howtoRe       = regexp.MustCompile(`^how (to|do|can|should|does)`)
	comparisonRe  = regexp.MustCompile(`\bvs\b|\bversus\b|\bcompare|\bdifference between\b`)
	factualRe     = regexp.MustCompile(`^(when|where|did|was)\b`)
	listStartRe   = regexp.MustCompile(`^(best|top|recommend)\b`)
	listAnyRe     = regexp.MustCompile(`\bbest\b|\btop \d+`)
	currentRe     = regexp.MustCompile(`latest|recent|news|update|current|202[4-9]`)
	explanationRe = regexp.MustCompile(`^why\b`)
)

// DetectQueryType classifies a query by leading keywords and phrasing.
func DetectQueryType(query string) QueryType {
	q := strings.TrimSpace(strings.ToLower(query))
	switch {
	case definitionRe.MatchString(q) || definitionQRe.MatchString(q):
		return TypeDefinition
	case howtoRe.MatchString(q):
		return TypeHowTo
	case comparisonRe.MatchString(q):
		return TypeComparison
	case factualRe.MatchString(q):
		return TypeFactual
	case listStartRe.MatchString(q) || listAnyRe.MatchString(q):
		return TypeList
	case currentRe.MatchString(q):
		return TypeCurrent
	case explanationRe.MatchString(q):
		return TypeExplanation
	default:
		return TypeGeneral
	}
}
