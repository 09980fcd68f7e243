package classifier

import (
	"strings"
	"time"

	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
)

const (
	FlagFlagged = `\Flagged`

	recentWindow = 24 * time.Hour
	ccRuleName   = "cc routing"
)

// Resolver runs the classification cascade: enabled chains, then
// standalone rules, then CC routing. The first stage that commits wins.
type Resolver struct {
	evaluator *Evaluator
	now       func() time.Time
}

func NewResolver(evaluator *Evaluator) *Resolver {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &Resolver{evaluator: evaluator, now: time.Now}
}

// Resolve classifies one message. Every match is reported in Matches,
// including matches whose action is discarded because the continuation
// flags let scanning go on and nothing later commits.
func (r *Resolver) Resolve(projection *models.MessageProjection, snapshot *models.Snapshot) interfaces.Resolution {
	var resolution interfaces.Resolution

	for _, chain := range snapshot.Chains {
		if !chain.Enabled {
			continue
		}
		for _, rule := range chain.Rules {
			if !r.evaluator.MatchesRule(projection, rule) {
				continue
			}
			commit := chain.StopOnMatch || !rule.ContinueChain
			resolution.Matches = append(resolution.Matches, interfaces.Match{
				Stage:     enum.StageChain,
				ChainName: chain.Name,
				RuleName:  rule.Name,
				Committed: commit,
			})
			if commit {
				resolution.Action = rule.Directive(enum.StageChain)
				resolution.Stage = enum.StageChain
				return resolution
			}
		}
	}

	for _, rule := range snapshot.Rules {
		if !r.evaluator.MatchesRule(projection, rule) {
			continue
		}
		commit := rule.StopProcessing || !rule.ContinueChain
		resolution.Matches = append(resolution.Matches, interfaces.Match{
			Stage:     enum.StageRule,
			RuleName:  rule.Name,
			Committed: commit,
		})
		if commit {
			resolution.Action = rule.Directive(enum.StageRule)
			resolution.Stage = enum.StageRule
			return resolution
		}
	}

	if r.routeToCC(projection, snapshot) {
		resolution.Action = &models.ActionDirective{
			Kind:          enum.ActionMove,
			Folder:        snapshot.Options.CCFolder,
			MarkReadAfter: snapshot.Options.CCMarkReadAfter,
			RuleName:      ccRuleName,
			Stage:         enum.StageCC,
		}
		resolution.Stage = enum.StageCC
		resolution.CCMoved = true
		return resolution
	}

	resolution.Stage = enum.StageNone
	return resolution
}

func (r *Resolver) routeToCC(projection *models.MessageProjection, snapshot *models.Snapshot) bool {
	options := snapshot.Options
	if !options.CCEnabled || options.CCFolder == "" {
		return false
	}
	address := strings.ToLower(strings.TrimSpace(snapshot.AccountAddress))
	if address == "" {
		return false
	}
	if !strings.Contains(strings.ToLower(projection.CC), address) ||
		strings.Contains(strings.ToLower(projection.Recipients), address) {
		return false
	}
	if options.CCSkipImportant && projection.HasFlag(FlagFlagged) {
		return false
	}
	if options.CCSkipRecent && !projection.Date.IsZero() && r.now().Sub(projection.Date) < recentWindow {
		return false
	}
	return true
}
