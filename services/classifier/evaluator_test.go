package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

func newProjection(subject, sender, body string) *models.MessageProjection {
	p := models.NewMessageProjection(1, nil, func() string { return body })
	p.Subject = subject
	p.Sender = sender
	return p
}

func TestEvaluate_Operators(t *testing.T) {
	e := NewEvaluator()
	p := newProjection("Invoice #4 for March", "Ops <ops@billing.example.com>", "Please pay")

	tests := []struct {
		name     string
		cond     models.Condition
		expected bool
	}{
		{"contains", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "invoice"}, true},
		{"not contains", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorNotContains, Keyword: "invoice"}, false},
		{"starts with", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorStartsWith, Keyword: "INVOICE"}, true},
		{"ends with", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorEndsWith, Keyword: "march"}, true},
		{"equals", models.Condition{Field: enum.FieldSenderDomain, Operator: enum.OperatorEquals, Keyword: "billing.example.com"}, true},
		{"not equals", models.Condition{Field: enum.FieldSenderDomain, Operator: enum.OperatorNotEquals, Keyword: "billing.example.com"}, false},
		{"regex", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: `#\d+`}, true},
		{"regex miss", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: `^march`}, false},
		{"subject or body", models.Condition{Field: enum.FieldSubjectOrBody, Operator: enum.OperatorContains, Keyword: "march please"}, true},
		{"body", models.Condition{Field: enum.FieldBody, Operator: enum.OperatorContains, Keyword: "pay"}, true},
		{"sender", models.Condition{Field: enum.FieldSender, Operator: enum.OperatorContains, Keyword: "@billing"}, true},
		{"case sensitive miss", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "invoice", CaseSensitive: true}, false},
		{"case sensitive hit", models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "Invoice", CaseSensitive: true}, true},
		{"unknown operator", models.Condition{Field: enum.FieldSubject, Operator: "like", Keyword: "invoice"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Evaluate(p, tt.cond))
		})
	}
}

func TestEvaluate_MalformedRegexIsFalse(t *testing.T) {
	e := NewEvaluator()
	p := newProjection("a(b", "", "")
	cond := models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: "a(b"}

	assert.False(t, e.Evaluate(p, cond))
	// second evaluation is served from the cache
	assert.False(t, e.Evaluate(p, cond))
	assert.Equal(t, 1, e.patterns.Len())
}

func TestEvaluate_CaseInsensitiveRegexLowersPattern(t *testing.T) {
	e := NewEvaluator()
	p := newProjection("ORDER 77", "", "")

	assert.True(t, e.Evaluate(p, models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: "ORDER [0-9]+"}))
	assert.True(t, e.Evaluate(p, models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: "^[A-Z]+ 77$"}))
	assert.False(t, e.Evaluate(p, models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorRegexMatch, Keyword: "^[a-z]+ 77$", CaseSensitive: true}))
}

func TestEvaluate_CaseInsensitiveIsReflexive(t *testing.T) {
	e := NewEvaluator()
	texts := []string{"Hello World", "MiXeD Case Subject", "ÄÖÜ straße", ""}
	keywords := []string{"WORLD", "case", "Straße", "xyz", "h"}
	operators := []enum.Operator{
		enum.OperatorContains, enum.OperatorNotContains, enum.OperatorStartsWith, enum.OperatorEndsWith,
		enum.OperatorEquals, enum.OperatorNotEquals, enum.OperatorRegexMatch, enum.OperatorContainsAnyOf,
	}

	for _, text := range texts {
		for _, keyword := range keywords {
			for _, op := range operators {
				cond := models.Condition{Field: enum.FieldSubject, Operator: op, Keyword: keyword}
				lowered := models.Condition{Field: enum.FieldSubject, Operator: op, Keyword: strings.ToLower(keyword)}
				assert.Equal(t,
					e.Evaluate(newProjection(text, "", ""), cond),
					e.Evaluate(newProjection(strings.ToLower(text), "", ""), lowered),
					"text=%q keyword=%q op=%s", text, keyword, op)
			}
		}
	}
}

func TestEvaluate_ContainsAnyOf(t *testing.T) {
	e := NewEvaluator()
	cond := models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContainsAnyOf, Keyword: "a, b ,c"}

	for _, subject := range []string{"xa", "bz", "ccc", "abc"} {
		assert.True(t, e.Evaluate(newProjection(subject, "", ""), cond), subject)
	}
	for _, subject := range []string{"xyz", "", "d e f"} {
		assert.False(t, e.Evaluate(newProjection(subject, "", ""), cond), subject)
	}
}

func TestEvaluate_ContainsAnyOfIgnoresEmptyTokens(t *testing.T) {
	e := NewEvaluator()
	cond := models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContainsAnyOf, Keyword: "urgent,, "}

	assert.False(t, e.Evaluate(newProjection("hello", "", ""), cond))
	assert.True(t, e.Evaluate(newProjection("URGENT: hello", "", ""), cond))
}

func TestMatchesRule_SecondaryCondition(t *testing.T) {
	e := NewEvaluator()
	p := newProjection("Invoice", "ops@billing.example.com", "")

	rule := models.Rule{
		Condition: models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "invoice"},
		And:       &models.Condition{Field: enum.FieldSenderDomain, Operator: enum.OperatorEndsWith, Keyword: "example.com"},
	}
	assert.True(t, e.MatchesRule(p, rule))

	rule.And.Keyword = "example.org"
	assert.False(t, e.MatchesRule(p, rule))

	// the AND condition inherits the primary case sensitivity
	rule.And.Keyword = "EXAMPLE.COM"
	assert.True(t, e.MatchesRule(p, rule))
	rule.Condition.CaseSensitive = true
	rule.Condition.Keyword = "Invoice"
	assert.False(t, e.MatchesRule(p, rule))

	// an empty AND keyword means no AND condition
	rule.And.Keyword = ""
	assert.True(t, e.MatchesRule(p, rule))
}

func TestEvaluate_BodyIsLazy(t *testing.T) {
	e := NewEvaluator()
	calls := 0
	p := models.NewMessageProjection(1, nil, func() string {
		calls++
		return "body"
	})
	p.Subject = "subject"

	e.Evaluate(p, models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "sub"})
	assert.Equal(t, 0, calls)

	e.Evaluate(p, models.Condition{Field: enum.FieldBody, Operator: enum.OperatorContains, Keyword: "b"})
	e.Evaluate(p, models.Condition{Field: enum.FieldSubjectOrBody, Operator: enum.OperatorContains, Keyword: "b"})
	assert.Equal(t, 1, calls)
}
