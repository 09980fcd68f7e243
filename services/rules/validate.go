package rules

import (
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/internal/enum"
	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
)

// Validate checks every rule and chain, including the rules inlined in
// chains, and reports the first problem found.
func Validate(rules []models.Rule, chains []models.RuleChain) error {
	for i, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return errors.Wrapf(err, "rules[%d]", i)
		}
	}

	known := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		known[rule.Name] = struct{}{}
	}

	for i, chain := range chains {
		if trimmedEmpty(chain.Name) {
			return errors.Wrapf(mailsort_errors.ErrInvalidRule, "chains[%d]: name is required", i)
		}
		for j, rule := range chain.Rules {
			if err := ValidateRule(rule); err != nil {
				return errors.Wrapf(err, "chain %q rules[%d]", chain.Name, j)
			}
		}
		for _, ref := range chain.RuleRefs {
			if _, ok := known[ref]; !ok {
				return errors.Wrapf(mailsort_errors.ErrInvalidRule, "chain %q references unknown rule %q", chain.Name, ref)
			}
		}
	}
	return nil
}

func ValidateRule(rule models.Rule) error {
	if trimmedEmpty(rule.Name) {
		return errors.Wrap(mailsort_errors.ErrInvalidRule, "name is required")
	}
	if err := validateCondition(rule.Condition); err != nil {
		return errors.Wrapf(err, "rule %q", rule.Name)
	}
	if secondary := rule.SecondaryCondition(); secondary != nil {
		if err := validateCondition(*secondary); err != nil {
			return errors.Wrapf(err, "rule %q and_condition", rule.Name)
		}
	}
	if !rule.Action.IsValid() {
		return errors.Wrapf(mailsort_errors.ErrInvalidRule, "rule %q: unknown action %q", rule.Name, rule.Action)
	}
	if rule.Action.RequiresFolder() && trimmedEmpty(rule.Folder) {
		return errors.Wrapf(mailsort_errors.ErrInvalidRule, "rule %q: action %s requires a folder", rule.Name, rule.Action)
	}
	if rule.Action == enum.ActionLabel && trimmedEmpty(rule.Folder) {
		return errors.Wrapf(mailsort_errors.ErrInvalidRule, "rule %q: label action requires a label name in folder", rule.Name)
	}
	return nil
}

func validateCondition(condition models.Condition) error {
	if !condition.Field.IsValid() {
		return errors.Wrapf(mailsort_errors.ErrInvalidRule, "unknown field %q", condition.Field)
	}
	if !condition.Operator.IsValid() {
		return errors.Wrapf(mailsort_errors.ErrInvalidRule, "unknown operator %q", condition.Operator)
	}
	return nil
}

// ResolveChainRefs appends the rules a chain references by name after its
// inline rules. Unknown references are skipped; Validate reports them.
func ResolveChainRefs(rules []models.Rule, chains []models.RuleChain) []models.RuleChain {
	byName := make(map[string]models.Rule, len(rules))
	for _, rule := range rules {
		if _, ok := byName[rule.Name]; !ok {
			byName[rule.Name] = rule
		}
	}

	resolved := make([]models.RuleChain, 0, len(chains))
	for _, chain := range chains {
		if len(chain.RuleRefs) > 0 {
			chainRules := append([]models.Rule(nil), chain.Rules...)
			for _, ref := range chain.RuleRefs {
				if rule, ok := byName[ref]; ok {
					chainRules = append(chainRules, rule)
				}
			}
			chain.Rules = chainRules
		}
		resolved = append(resolved, chain)
	}
	return resolved
}

// ReferencedFolders lists the destination folders of enabled rules and
// chains that move or copy, in first-seen order.
func ReferencedFolders(rules []models.Rule, chains []models.RuleChain) []string {
	var folders []string
	add := func(rule models.Rule) {
		if rule.Action.RequiresFolder() && !trimmedEmpty(rule.Folder) {
			folders = append(folders, rule.Folder)
		}
	}
	for _, chain := range chains {
		if !chain.Enabled {
			continue
		}
		for _, rule := range chain.Rules {
			add(rule)
		}
	}
	for _, rule := range rules {
		add(rule)
	}
	return folders
}
