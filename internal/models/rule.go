package models

import (
	"encoding/json"

	"github.com/customeros/mailsort/internal/enum"
)

const DefaultRulePriority = 50

// Condition is a single field/operator/keyword test against a message.
type Condition struct {
	Field         enum.Field    `json:"field" toml:"field"`
	Operator      enum.Operator `json:"operator" toml:"operator"`
	Keyword       string        `json:"keyword" toml:"keyword"`
	CaseSensitive bool          `json:"case_sensitive" toml:"case_sensitive"`
}

// Rule maps a condition (with an optional AND condition) to an action.
// Lower priority values are evaluated first.
type Rule struct {
	Name            string          `json:"name" toml:"name"`
	Priority        int             `json:"priority" toml:"priority"`
	Condition       Condition       `json:"condition" toml:"condition"`
	And             *Condition      `json:"and_condition,omitempty" toml:"and_condition,omitempty"`
	Action          enum.ActionKind `json:"action" toml:"action"`
	Folder          string          `json:"folder,omitempty" toml:"folder,omitempty"`
	StopProcessing  bool            `json:"stop_processing" toml:"stop_processing"`
	ContinueChain   bool            `json:"continue_chain" toml:"continue_chain"`
	MarkAfterAction bool            `json:"mark_after_action" toml:"mark_after_action"`
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	type alias Rule
	decoded := alias{Priority: DefaultRulePriority}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Rule(decoded)
	return nil
}

// SecondaryCondition returns the AND condition carrying the primary
// condition's case sensitivity, or nil when none is configured.
func (r Rule) SecondaryCondition() *Condition {
	if r.And == nil || r.And.Keyword == "" {
		return nil
	}
	secondary := *r.And
	secondary.CaseSensitive = r.Condition.CaseSensitive
	return &secondary
}

// Directive builds the action a matching rule resolves to.
func (r Rule) Directive(stage enum.Stage) *ActionDirective {
	return &ActionDirective{
		Kind:          r.Action,
		Folder:        r.Folder,
		MarkReadAfter: r.MarkAfterAction,
		RuleName:      r.Name,
		Stage:         stage,
	}
}

// RuleChain is a named, ordered group of rules evaluated as a unit.
// Rules may be given inline or referenced by name through RuleRefs;
// references are resolved when the run snapshot is built.
type RuleChain struct {
	Name        string   `json:"name" toml:"name"`
	Priority    int      `json:"priority" toml:"priority"`
	Rules       []Rule   `json:"rules" toml:"rules"`
	RuleRefs    []string `json:"rule_refs,omitempty" toml:"rule_refs,omitempty"`
	StopOnMatch bool     `json:"stop_on_match" toml:"stop_on_match"`
	Enabled     bool     `json:"enabled" toml:"enabled"`
}

func (c *RuleChain) UnmarshalJSON(data []byte) error {
	type alias RuleChain
	decoded := alias{
		Priority:    DefaultRulePriority,
		StopOnMatch: true,
		Enabled:     true,
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = RuleChain(decoded)
	return nil
}

// ActionDirective is the resolved outcome of classifying one message.
type ActionDirective struct {
	Kind          enum.ActionKind `json:"kind"`
	Folder        string          `json:"folder,omitempty"`
	MarkReadAfter bool            `json:"mark_read_after"`
	RuleName      string          `json:"rule_name,omitempty"`
	Stage         enum.Stage      `json:"stage"`
}

// Target describes the directive for log lines: the folder when there is one,
// the action kind otherwise.
func (d *ActionDirective) Target() string {
	if d.Folder != "" {
		return d.Folder
	}
	return d.Kind.String()
}
