package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

func subjectRule(name string, priority int, keyword string, folder string) models.Rule {
	return models.Rule{
		Name:      name,
		Priority:  priority,
		Condition: models.Condition{Field: enum.FieldSubject, Operator: enum.OperatorContains, Keyword: keyword},
		Action:    enum.ActionMove,
		Folder:    folder,
	}
}

func ccProjection(to, cc string, flags []string, date time.Time) *models.MessageProjection {
	p := models.NewMessageProjection(7, flags, nil)
	p.Subject = "hello"
	p.Sender = "friend@example.org"
	p.Recipients = to
	p.CC = cc
	p.Date = date
	return p
}

func TestResolve_StopProcessingWinsOverLaterRule(t *testing.T) {
	finance := subjectRule("finance", 1, "invoice", "Finance")
	finance.StopProcessing = true
	billing := models.Rule{
		Name:      "billing",
		Priority:  50,
		Condition: models.Condition{Field: enum.FieldSender, Operator: enum.OperatorContains, Keyword: "@billing"},
		Action:    enum.ActionMove,
		Folder:    "Billing",
	}
	snapshot := models.NewSnapshot(models.Options{}, "me@example.com", []models.Rule{billing, finance}, nil)

	p := newProjection("Invoice #4", "ops@billing.example.com", "")
	resolution := NewResolver(nil).Resolve(p, &snapshot)

	require.NotNil(t, resolution.Action)
	assert.Equal(t, enum.ActionMove, resolution.Action.Kind)
	assert.Equal(t, "Finance", resolution.Action.Folder)
	assert.Equal(t, enum.StageRule, resolution.Stage)
	assert.Equal(t, 1, resolution.RuleMatches())
	assert.Equal(t, 0, resolution.ChainMatches())
}

func TestResolve_CCSkipsFlaggedMessage(t *testing.T) {
	options := models.Options{CCEnabled: true, CCFolder: "CC", CCSkipImportant: true}
	snapshot := models.NewSnapshot(options, "me@example.com", nil, nil)

	p := ccProjection("boss@example.com", "Me <me@example.com>", []string{`\Flagged`}, time.Time{})
	resolution := NewResolver(nil).Resolve(p, &snapshot)

	assert.Nil(t, resolution.Action)
	assert.False(t, resolution.CCMoved)
	assert.Equal(t, enum.StageNone, resolution.Stage)
}

func TestResolve_CCRouting(t *testing.T) {
	options := models.Options{CCEnabled: true, CCFolder: "CC", CCMarkReadAfter: true, CCSkipImportant: true}
	snapshot := models.NewSnapshot(options, "Me@Example.com", nil, nil)
	resolver := NewResolver(nil)

	resolution := resolver.Resolve(ccProjection("boss@example.com", "me@example.com", nil, time.Time{}), &snapshot)
	require.NotNil(t, resolution.Action)
	assert.True(t, resolution.CCMoved)
	assert.Equal(t, enum.StageCC, resolution.Stage)
	assert.Equal(t, enum.ActionMove, resolution.Action.Kind)
	assert.Equal(t, "CC", resolution.Action.Folder)
	assert.True(t, resolution.Action.MarkReadAfter)

	// also a primary recipient
	resolution = resolver.Resolve(ccProjection("me@example.com", "me@example.com", nil, time.Time{}), &snapshot)
	assert.Nil(t, resolution.Action)

	// not in cc at all
	resolution = resolver.Resolve(ccProjection("boss@example.com", "other@example.com", nil, time.Time{}), &snapshot)
	assert.Nil(t, resolution.Action)

	snapshot.Options.CCEnabled = false
	resolution = resolver.Resolve(ccProjection("boss@example.com", "me@example.com", nil, time.Time{}), &snapshot)
	assert.Nil(t, resolution.Action)
}

func TestResolve_CCSkipRecent(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	options := models.Options{CCEnabled: true, CCFolder: "CC", CCSkipRecent: true}
	snapshot := models.NewSnapshot(options, "me@example.com", nil, nil)
	resolver := NewResolver(nil)
	resolver.now = func() time.Time { return now }

	recent := ccProjection("a@example.com", "me@example.com", nil, now.Add(-2*time.Hour))
	assert.Nil(t, resolver.Resolve(recent, &snapshot).Action)

	old := ccProjection("a@example.com", "me@example.com", nil, now.Add(-48*time.Hour))
	assert.NotNil(t, resolver.Resolve(old, &snapshot).Action)

	undated := ccProjection("a@example.com", "me@example.com", nil, time.Time{})
	assert.NotNil(t, resolver.Resolve(undated, &snapshot).Action)
}

func TestResolve_ChainsBeforeRulesBeforeCC(t *testing.T) {
	chainRule := subjectRule("chain rule", 99, "hello", "FromChain")
	rule := subjectRule("rule", 0, "hello", "FromRule")
	options := models.Options{CCEnabled: true, CCFolder: "CC"}
	chains := []models.RuleChain{{Name: "chain", Priority: 100, Rules: []models.Rule{chainRule}, StopOnMatch: true, Enabled: true}}
	resolver := NewResolver(nil)
	p := ccProjection("x@example.com", "me@example.com", nil, time.Time{})

	snapshot := models.NewSnapshot(options, "me@example.com", []models.Rule{rule}, chains)
	resolution := resolver.Resolve(p, &snapshot)
	require.NotNil(t, resolution.Action)
	assert.Equal(t, "FromChain", resolution.Action.Folder)
	assert.Equal(t, enum.StageChain, resolution.Stage)

	chains[0].Enabled = false
	snapshot = models.NewSnapshot(options, "me@example.com", []models.Rule{rule}, chains)
	resolution = resolver.Resolve(p, &snapshot)
	require.NotNil(t, resolution.Action)
	assert.Equal(t, "FromRule", resolution.Action.Folder)

	snapshot = models.NewSnapshot(options, "me@example.com", nil, chains)
	resolution = resolver.Resolve(p, &snapshot)
	require.NotNil(t, resolution.Action)
	assert.Equal(t, "CC", resolution.Action.Folder)
}

func TestResolve_PriorityOrder(t *testing.T) {
	low := subjectRule("low", 10, "hello", "Low")
	high := subjectRule("high", 5, "hello", "High")
	snapshot := models.NewSnapshot(models.Options{}, "", []models.Rule{low, high}, nil)

	resolution := NewResolver(nil).Resolve(newProjection("hello", "", ""), &snapshot)
	require.NotNil(t, resolution.Action)
	assert.Equal(t, "High", resolution.Action.Folder)

	chains := []models.RuleChain{
		{Name: "second", Priority: 20, Rules: []models.Rule{subjectRule("b", 1, "hello", "Second")}, StopOnMatch: true, Enabled: true},
		{Name: "first", Priority: 2, Rules: []models.Rule{subjectRule("a", 1, "hello", "First")}, StopOnMatch: true, Enabled: true},
	}
	snapshot = models.NewSnapshot(models.Options{}, "", nil, chains)
	resolution = NewResolver(nil).Resolve(newProjection("hello", "", ""), &snapshot)
	require.NotNil(t, resolution.Action)
	assert.Equal(t, "First", resolution.Action.Folder)
}

func TestResolve_SeenButDiscardedMatches(t *testing.T) {
	seen := subjectRule("seen", 1, "hello", "Seen")
	seen.ContinueChain = true
	alsoSeen := subjectRule("also seen", 2, "hello", "AlsoSeen")
	alsoSeen.ContinueChain = true
	chains := []models.RuleChain{{Name: "soft", Priority: 1, Rules: []models.Rule{seen, alsoSeen}, StopOnMatch: false, Enabled: true}}

	snapshot := models.NewSnapshot(models.Options{}, "", []models.Rule{seen}, chains)
	resolution := NewResolver(nil).Resolve(newProjection("hello", "", ""), &snapshot)

	assert.Nil(t, resolution.Action)
	assert.Equal(t, enum.StageNone, resolution.Stage)
	assert.Equal(t, 2, resolution.ChainMatches())
	assert.Equal(t, 1, resolution.RuleMatches())
	for _, m := range resolution.Matches {
		assert.False(t, m.Committed)
	}
}

func TestResolve_ContinueChainThenStop(t *testing.T) {
	first := subjectRule("first", 1, "hello", "First")
	first.ContinueChain = true
	second := subjectRule("second", 2, "hello", "Second")
	chains := []models.RuleChain{{Name: "soft", Priority: 1, Rules: []models.Rule{first, second}, StopOnMatch: false, Enabled: true}}

	snapshot := models.NewSnapshot(models.Options{}, "", nil, chains)
	resolution := NewResolver(nil).Resolve(newProjection("hello", "", ""), &snapshot)

	require.NotNil(t, resolution.Action)
	assert.Equal(t, "Second", resolution.Action.Folder)
	assert.Equal(t, "second", resolution.Action.RuleName)
	assert.Equal(t, 2, resolution.ChainMatches())
}

func TestResolve_RuleContinueWithoutStopProcessing(t *testing.T) {
	first := subjectRule("first", 1, "hello", "First")
	first.ContinueChain = true
	second := subjectRule("second", 2, "hello", "Second")
	second.ContinueChain = true
	second.StopProcessing = true

	snapshot := models.NewSnapshot(models.Options{}, "", []models.Rule{second, first}, nil)
	resolution := NewResolver(nil).Resolve(newProjection("hello", "", ""), &snapshot)

	require.NotNil(t, resolution.Action)
	assert.Equal(t, "Second", resolution.Action.Folder)
	assert.Equal(t, 2, resolution.RuleMatches())
}
