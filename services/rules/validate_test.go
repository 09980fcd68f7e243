package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
)

func validRule(name string) models.Rule {
	return models.Rule{
		Name:      name,
		Priority:  10,
		Condition: models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: "x"},
		Action:    enum.ActionMove,
		Folder:    "Target",
	}
}

func TestValidate_Valid(t *testing.T) {
	chain := models.RuleChain{Name: "c", Rules: []models.Rule{validRule("inline")}, RuleRefs: []string{"a"}, Enabled: true}
	assert.NoError(t, Validate([]models.Rule{validRule("a")}, []models.RuleChain{chain}))
}

func TestValidate_MoveWithoutFolder(t *testing.T) {
	rule := validRule("a")
	rule.Folder = " "
	err := Validate([]models.Rule{rule}, nil)
	assert.ErrorIs(t, err, mailsort_errors.ErrInvalidRule)
}

func TestValidate_CopyWithoutFolder(t *testing.T) {
	rule := validRule("a")
	rule.Action = enum.ActionCopy
	rule.Folder = ""
	assert.ErrorIs(t, ValidateRule(rule), mailsort_errors.ErrInvalidRule)
}

func TestValidate_MarkReadNeedsNoFolder(t *testing.T) {
	rule := validRule("a")
	rule.Action = enum.ActionMarkRead
	rule.Folder = ""
	assert.NoError(t, ValidateRule(rule))
}

func TestValidate_UnknownEnums(t *testing.T) {
	rule := validRule("a")
	rule.Condition.Operator = "like"
	assert.ErrorIs(t, ValidateRule(rule), mailsort_errors.ErrInvalidRule)

	rule = validRule("a")
	rule.Condition.Field = "header"
	assert.ErrorIs(t, ValidateRule(rule), mailsort_errors.ErrInvalidRule)

	rule = validRule("a")
	rule.Action = "archive"
	assert.ErrorIs(t, ValidateRule(rule), mailsort_errors.ErrInvalidRule)

	rule = validRule("a")
	rule.And = &models.Condition{Field: "nope", Operator: enum.OperatorContains, Keyword: "k"}
	assert.ErrorIs(t, ValidateRule(rule), mailsort_errors.ErrInvalidRule)
}

func TestValidate_UnknownChainRef(t *testing.T) {
	chain := models.RuleChain{Name: "c", RuleRefs: []string{"missing"}}
	err := Validate([]models.Rule{validRule("a")}, []models.RuleChain{chain})
	require.Error(t, err)
	assert.ErrorIs(t, err, mailsort_errors.ErrInvalidRule)
	assert.Contains(t, err.Error(), "missing")
}

func TestResolveChainRefs_InlineFirst(t *testing.T) {
	rules := []models.Rule{validRule("a"), validRule("b")}
	chains := []models.RuleChain{{Name: "c", Rules: []models.Rule{validRule("inline")}, RuleRefs: []string{"b", "a", "zzz"}}}

	resolved := ResolveChainRefs(rules, chains)

	require.Len(t, resolved[0].Rules, 3)
	assert.Equal(t, "inline", resolved[0].Rules[0].Name)
	assert.Equal(t, "b", resolved[0].Rules[1].Name)
	assert.Equal(t, "a", resolved[0].Rules[2].Name)
	assert.Len(t, chains[0].Rules, 1)
}

func TestReferencedFolders_SkipsDisabledChains(t *testing.T) {
	flag := validRule("flag")
	flag.Action = enum.ActionMarkImportant
	flag.Folder = "Ignored"

	disabled := validRule("d")
	disabled.Folder = "Disabled"

	chains := []models.RuleChain{
		{Name: "on", Enabled: true, Rules: []models.Rule{validRule("c")}},
		{Name: "off", Enabled: false, Rules: []models.Rule{disabled}},
	}
	copyRule := validRule("copy")
	copyRule.Action = enum.ActionCopy
	copyRule.Folder = "Archive"

	folders := ReferencedFolders([]models.Rule{flag, copyRule}, chains)
	assert.Equal(t, []string{"Target", "Archive"}, folders)
}
