package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
)

func TestImportRules_RejectsNonList(t *testing.T) {
	payloads := []string{
		`{"name": "single"}`,
		`"rules"`,
		``,
		`42`,
	}

	for _, payload := range payloads {
		_, err := ImportRules(strings.NewReader(payload))
		assert.ErrorIs(t, err, mailsort_errors.ErrInvalidRuleFormat, payload)
	}
}

func TestImportRules_MalformedList(t *testing.T) {
	_, err := ImportRules(strings.NewReader(`[{"name": }]`))
	assert.ErrorIs(t, err, mailsort_errors.ErrInvalidRuleFormat)
}

func TestImportRules_DefaultsPriority(t *testing.T) {
	rules, err := ImportRules(strings.NewReader(`[
		{"name": "a", "condition": {"field": "subject", "operator": "contains", "keyword": "x"}, "action": "delete"},
		{"name": "b", "priority": 3, "condition": {"field": "sender", "operator": "equals", "keyword": "y"}, "action": "mark_read"}
	]`))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, models.DefaultRulePriority, rules[0].Priority)
	assert.Equal(t, 3, rules[1].Priority)
}

func TestImportChains_Defaults(t *testing.T) {
	chains, err := ImportChains(strings.NewReader(`[{"name": "newsletters", "rules": []}]`))
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.True(t, chains[0].Enabled)
	assert.True(t, chains[0].StopOnMatch)
	assert.Equal(t, models.DefaultRulePriority, chains[0].Priority)
}

func TestExportImport_RoundTrip(t *testing.T) {
	rules := []models.Rule{
		{
			Name:     "finance",
			Priority: 1,
			Condition: models.Condition{
				Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "Invoice", CaseSensitive: true,
			},
			And: &models.Condition{
				Field: enum.FieldSender, Operator: enum.OperatorEndsWith, Keyword: "example.com",
			},
			Action:          enum.ActionMove,
			Folder:          "Finance",
			StopProcessing:  true,
			MarkAfterAction: true,
		},
		{
			Name:          "flag boss",
			Priority:      0,
			Condition:     models.Condition{Field: enum.FieldSenderDomain, Operator: enum.OperatorEquals, Keyword: "boss.com"},
			Action:        enum.ActionMarkImportant,
			ContinueChain: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportRules(&buf, rules))

	imported, err := ImportRules(&buf)
	require.NoError(t, err)
	assert.Equal(t, rules, imported)
}

func TestExportImportChains_RoundTrip(t *testing.T) {
	chains := []models.RuleChain{
		{
			Name:     "disabled",
			Priority: 7,
			Rules: []models.Rule{
				{Name: "r", Priority: 50, Condition: models.Condition{Field: enum.FieldBody, Operator: enum.OperatorRegexMatch, Keyword: "^a"}, Action: enum.ActionDelete},
			},
			RuleRefs:    []string{"other"},
			StopOnMatch: false,
			Enabled:     false,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportChains(&buf, chains))

	imported, err := ImportChains(&buf)
	require.NoError(t, err)
	assert.Equal(t, chains, imported)
}

func TestExportRules_EmptyIsList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRules(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestMergeRules_AppendsAndSorts(t *testing.T) {
	existing := []models.Rule{{Name: "a", Priority: 10}, {Name: "b", Priority: 30}}
	imported := []models.Rule{{Name: "c", Priority: 20}, {Name: "d", Priority: 10}}

	merged := MergeRules(existing, imported)

	var names []string
	for _, r := range merged {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"a", "d", "c", "b"}, names)
	assert.Len(t, existing, 2)
}
