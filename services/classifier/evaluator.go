package classifier

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

const regexCacheSize = 512

// Evaluator tests conditions against message projections. Compiled
// patterns are cached; a malformed pattern is cached as a nil entry so it
// keeps evaluating to false without recompiling.
type Evaluator struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

func NewEvaluator() *Evaluator {
	cache, _ := lru.New[string, *regexp.Regexp](regexCacheSize)
	return &Evaluator{patterns: cache}
}

// MatchesRule reports whether the primary condition and, when configured,
// the AND condition both match.
func (e *Evaluator) MatchesRule(projection *models.MessageProjection, rule models.Rule) bool {
	if !e.Evaluate(projection, rule.Condition) {
		return false
	}
	secondary := rule.SecondaryCondition()
	return secondary == nil || e.Evaluate(projection, *secondary)
}

func (e *Evaluator) Evaluate(projection *models.MessageProjection, condition models.Condition) bool {
	text := fieldText(projection, condition.Field)
	keyword := condition.Keyword
	if !condition.CaseSensitive {
		text = strings.ToLower(text)
		keyword = strings.ToLower(keyword)
	}

	switch condition.Operator {
	case enum.OperatorContains:
		return strings.Contains(text, keyword)
	case enum.OperatorNotContains:
		return !strings.Contains(text, keyword)
	case enum.OperatorStartsWith:
		return strings.HasPrefix(text, keyword)
	case enum.OperatorEndsWith:
		return strings.HasSuffix(text, keyword)
	case enum.OperatorEquals:
		return text == keyword
	case enum.OperatorNotEquals:
		return text != keyword
	case enum.OperatorRegexMatch:
		re := e.compile(keyword)
		return re != nil && re.MatchString(text)
	case enum.OperatorContainsAnyOf:
		for _, token := range strings.Split(keyword, ",") {
			token = strings.TrimSpace(token)
			if token != "" && strings.Contains(text, token) {
				return true
			}
		}
		return false
	}
	return false
}

func (e *Evaluator) compile(pattern string) *regexp.Regexp {
	if re, ok := e.patterns.Get(pattern); ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	e.patterns.Add(pattern, re)
	return re
}

func fieldText(projection *models.MessageProjection, field enum.Field) string {
	switch field {
	case enum.FieldSubject:
		return projection.Subject
	case enum.FieldSender:
		return projection.Sender
	case enum.FieldRecipient:
		return projection.Recipients
	case enum.FieldBody:
		return projection.Body()
	case enum.FieldSubjectOrBody:
		return projection.Subject + " " + projection.Body()
	case enum.FieldSenderDomain:
		return projection.SenderDomain()
	}
	return ""
}
