package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/services/rules"
)

func (c *ClassifierConfig) Options() models.Options {
	return models.Options{
		PreserveUnread:     c.PreserveUnread,
		CCEnabled:          c.CCEnabled,
		CCFolder:           c.CCFolder,
		CCMarkReadAfter:    c.CCMarkReadAfter,
		CCSkipImportant:    c.CCSkipImportant,
		CCSkipRecent:       c.CCSkipRecent,
		MaxMessages:        c.MaxMessages,
		FilterUnreadOnly:   c.FilterUnreadOnly,
		FilterSinceDays:    c.FilterSinceDays,
		DryRun:             c.DryRun,
		BackupBeforeMove:   c.BackupBeforeMove,
		BatchSize:          c.BatchSize,
		FoldersToScan:      append([]string(nil), c.FoldersToScan...),
		IncludeInbox:       c.IncludeInbox,
		ParallelProcessing: c.ParallelProcessing,
	}
}

// LoadDefinitions reads rules and chains from the configured JSON files
// and the optional profile. Missing rule and chain files count as empty.
// Profile entries are appended after file entries.
func (c *ClassifierConfig) LoadDefinitions() (models.Options, []models.Rule, []models.RuleChain, error) {
	options := c.Options()
	var ruleList []models.Rule
	var chainList []models.RuleChain

	if fileExists(c.RulesFile) {
		loaded, err := rules.LoadRulesFile(c.RulesFile)
		if err != nil {
			return options, nil, nil, err
		}
		ruleList = loaded
	}
	if fileExists(c.ChainsFile) {
		loaded, err := rules.LoadChainsFile(c.ChainsFile)
		if err != nil {
			return options, nil, nil, err
		}
		chainList = loaded
	}
	if c.ProfileFile != "" {
		profile, err := LoadProfile(c.ProfileFile)
		if err != nil {
			return options, nil, nil, err
		}
		options = profile.Apply(options)
		ruleList = append(ruleList, profile.ModelRules()...)
		chainList = append(chainList, profile.ModelChains()...)
	}

	return options, ruleList, chainList, nil
}

// BuildSnapshot validates the definitions and freezes them into the input
// of a single run.
func BuildSnapshot(options models.Options, accountAddress string, ruleList []models.Rule, chainList []models.RuleChain) (models.Snapshot, error) {
	if err := rules.Validate(ruleList, chainList); err != nil {
		return models.Snapshot{}, errors.Wrap(err, "invalid rule configuration")
	}
	if options.CCEnabled && options.CCFolder == "" {
		return models.Snapshot{}, errors.New("cc routing enabled without a cc folder")
	}
	chainList = rules.ResolveChainRefs(ruleList, chainList)
	return models.NewSnapshot(options, accountAddress, ruleList, chainList), nil
}

// Snapshot loads every definition source and builds the run snapshot.
func (c *Config) Snapshot() (models.Snapshot, error) {
	options, ruleList, chainList, err := c.ClassifierConfig.LoadDefinitions()
	if err != nil {
		return models.Snapshot{}, err
	}
	return BuildSnapshot(options, c.ImapConfig.Address(), ruleList, chainList)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
