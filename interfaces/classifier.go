package interfaces

import (
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

// Match records a rule that matched during classification.
type Match struct {
	Stage     enum.Stage
	ChainName string
	RuleName  string
	Committed bool
}

// Resolution is the outcome of running a message through the cascade.
// Action is nil when no stage committed.
type Resolution struct {
	Action  *models.ActionDirective
	Stage   enum.Stage
	Matches []Match
	CCMoved bool
}

func (r Resolution) ChainMatches() int {
	return r.countMatches(enum.StageChain)
}

func (r Resolution) RuleMatches() int {
	return r.countMatches(enum.StageRule)
}

func (r Resolution) countMatches(stage enum.Stage) int {
	count := 0
	for _, m := range r.Matches {
		if m.Stage == stage {
			count++
		}
	}
	return count
}

type RuleResolver interface {
	Resolve(projection *models.MessageProjection, snapshot *models.Snapshot) Resolution
}
