package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/customeros/mailsort/internal/enum"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/internal/utils"
)

// Profile is a TOML file bundling run options with rules and chains.
// Options present in the profile override the environment.
type Profile struct {
	Options profileOptions `toml:"options"`
	Rules   []profileRule  `toml:"rules"`
	Chains  []profileChain `toml:"chains"`
}

type profileOptions struct {
	PreserveUnread     *bool    `toml:"preserve_unread"`
	CCEnabled          *bool    `toml:"cc_enabled"`
	CCFolder           *string  `toml:"cc_folder"`
	CCMarkReadAfter    *bool    `toml:"cc_mark_read_after"`
	CCSkipImportant    *bool    `toml:"cc_skip_important"`
	CCSkipRecent       *bool    `toml:"cc_skip_recent"`
	MaxMessages        *int     `toml:"max_messages"`
	FilterUnreadOnly   *bool    `toml:"filter_unread_only"`
	FilterSinceDays    *int     `toml:"filter_since_days"`
	DryRun             *bool    `toml:"dry_run"`
	BackupBeforeMove   *bool    `toml:"backup_before_move"`
	BatchSize          *int     `toml:"batch_size"`
	FoldersToScan      []string `toml:"folders_to_scan"`
	IncludeInbox       *bool    `toml:"include_inbox"`
	ParallelProcessing *bool    `toml:"parallel_processing"`
}

type profileRule struct {
	Name            string            `toml:"name"`
	Priority        *int              `toml:"priority"`
	Condition       models.Condition  `toml:"condition"`
	And             *models.Condition `toml:"and_condition"`
	Action          enum.ActionKind   `toml:"action"`
	Folder          string            `toml:"folder"`
	StopProcessing  bool              `toml:"stop_processing"`
	ContinueChain   bool              `toml:"continue_chain"`
	MarkAfterAction bool              `toml:"mark_after_action"`
}

type profileChain struct {
	Name        string        `toml:"name"`
	Priority    *int          `toml:"priority"`
	Rules       []profileRule `toml:"rules"`
	RuleRefs    []string      `toml:"rule_refs"`
	StopOnMatch *bool         `toml:"stop_on_match"`
	Enabled     *bool         `toml:"enabled"`
}

func LoadProfile(path string) (*Profile, error) {
	var profile Profile
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return nil, errors.Wrapf(err, "decode profile %s", path)
	}
	return &profile, nil
}

func DecodeProfile(data string) (*Profile, error) {
	var profile Profile
	if _, err := toml.Decode(data, &profile); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return &profile, nil
}

// Apply overlays the options set in the profile onto base.
func (p *Profile) Apply(base models.Options) models.Options {
	o := p.Options
	base.PreserveUnread = utils.GetOrDefault(o.PreserveUnread, base.PreserveUnread)
	base.CCEnabled = utils.GetOrDefault(o.CCEnabled, base.CCEnabled)
	base.CCFolder = utils.GetOrDefault(o.CCFolder, base.CCFolder)
	base.CCMarkReadAfter = utils.GetOrDefault(o.CCMarkReadAfter, base.CCMarkReadAfter)
	base.CCSkipImportant = utils.GetOrDefault(o.CCSkipImportant, base.CCSkipImportant)
	base.CCSkipRecent = utils.GetOrDefault(o.CCSkipRecent, base.CCSkipRecent)
	base.MaxMessages = utils.GetOrDefault(o.MaxMessages, base.MaxMessages)
	base.FilterUnreadOnly = utils.GetOrDefault(o.FilterUnreadOnly, base.FilterUnreadOnly)
	base.FilterSinceDays = utils.GetOrDefault(o.FilterSinceDays, base.FilterSinceDays)
	base.DryRun = utils.GetOrDefault(o.DryRun, base.DryRun)
	base.BackupBeforeMove = utils.GetOrDefault(o.BackupBeforeMove, base.BackupBeforeMove)
	base.BatchSize = utils.GetOrDefault(o.BatchSize, base.BatchSize)
	base.IncludeInbox = utils.GetOrDefault(o.IncludeInbox, base.IncludeInbox)
	base.ParallelProcessing = utils.GetOrDefault(o.ParallelProcessing, base.ParallelProcessing)
	if o.FoldersToScan != nil {
		base.FoldersToScan = append([]string(nil), o.FoldersToScan...)
	}
	return base
}

func (p *Profile) ModelRules() []models.Rule {
	return toModelRules(p.Rules)
}

func (p *Profile) ModelChains() []models.RuleChain {
	chains := make([]models.RuleChain, 0, len(p.Chains))
	for _, c := range p.Chains {
		chains = append(chains, models.RuleChain{
			Name:        c.Name,
			Priority:    utils.GetOrDefault(c.Priority, models.DefaultRulePriority),
			Rules:       toModelRules(c.Rules),
			RuleRefs:    c.RuleRefs,
			StopOnMatch: utils.GetOrDefault(c.StopOnMatch, true),
			Enabled:     utils.GetOrDefault(c.Enabled, true),
		})
	}
	return chains
}

func toModelRules(in []profileRule) []models.Rule {
	rules := make([]models.Rule, 0, len(in))
	for _, r := range in {
		rules = append(rules, models.Rule{
			Name:            r.Name,
			Priority:        utils.GetOrDefault(r.Priority, models.DefaultRulePriority),
			Condition:       r.Condition,
			And:             r.And,
			Action:          r.Action,
			Folder:          r.Folder,
			StopProcessing:  r.StopProcessing,
			ContinueChain:   r.ContinueChain,
			MarkAfterAction: r.MarkAfterAction,
		})
	}
	return rules
}
