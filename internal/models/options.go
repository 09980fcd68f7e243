package models

import "sort"

const (
	InboxFolder      = "INBOX"
	BackupFolder     = "BACKUP"
	DefaultBatchSize = 50
)

// Options are the per-run switches supplied by the configuration collaborator.
type Options struct {
	PreserveUnread   bool     `json:"preserve_unread" toml:"preserve_unread"`
	CCEnabled        bool     `json:"cc_enabled" toml:"cc_enabled"`
	CCFolder         string   `json:"cc_folder" toml:"cc_folder"`
	CCMarkReadAfter  bool     `json:"cc_mark_read_after" toml:"cc_mark_read_after"`
	CCSkipImportant  bool     `json:"cc_skip_important" toml:"cc_skip_important"`
	CCSkipRecent     bool     `json:"cc_skip_recent" toml:"cc_skip_recent"`
	MaxMessages      int      `json:"max_messages" toml:"max_messages"`
	FilterUnreadOnly bool     `json:"filter_unread_only" toml:"filter_unread_only"`
	FilterSinceDays  int      `json:"filter_since_days" toml:"filter_since_days"`
	DryRun           bool     `json:"dry_run" toml:"dry_run"`
	BackupBeforeMove bool     `json:"backup_before_move" toml:"backup_before_move"`
	BatchSize        int      `json:"batch_size" toml:"batch_size"`
	FoldersToScan    []string `json:"folders_to_scan" toml:"folders_to_scan"`
	IncludeInbox     bool     `json:"include_inbox" toml:"include_inbox"`
	// ParallelProcessing is accepted for compatibility and has no effect:
	// runs are always sequential.
	ParallelProcessing bool `json:"parallel_processing" toml:"parallel_processing"`
}

func (o Options) EffectiveBatchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// Snapshot is the immutable input of a single run.
type Snapshot struct {
	Options        Options
	AccountAddress string
	Rules          []Rule
	Chains         []RuleChain
}

// NewSnapshot copies rules and chains and orders both by ascending priority.
// Sorting is stable so equal priorities keep their configured order.
func NewSnapshot(options Options, accountAddress string, rules []Rule, chains []RuleChain) Snapshot {
	sortedRules := make([]Rule, len(rules))
	copy(sortedRules, rules)
	sort.SliceStable(sortedRules, func(i, j int) bool {
		return sortedRules[i].Priority < sortedRules[j].Priority
	})

	sortedChains := make([]RuleChain, len(chains))
	copy(sortedChains, chains)
	sort.SliceStable(sortedChains, func(i, j int) bool {
		return sortedChains[i].Priority < sortedChains[j].Priority
	})

	options.FoldersToScan = append([]string(nil), options.FoldersToScan...)

	return Snapshot{
		Options:        options,
		AccountAddress: accountAddress,
		Rules:          sortedRules,
		Chains:         sortedChains,
	}
}
