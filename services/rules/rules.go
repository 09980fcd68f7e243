package rules

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	mailsort_errors "github.com/customeros/mailsort/internal/errors"
	"github.com/customeros/mailsort/internal/models"
)

// ImportRules decodes a JSON list of rules. Any payload that is not a list
// is rejected with ErrInvalidRuleFormat.
func ImportRules(r io.Reader) ([]models.Rule, error) {
	var rules []models.Rule
	if err := decodeList(r, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func ImportChains(r io.Reader) ([]models.RuleChain, error) {
	var chains []models.RuleChain
	if err := decodeList(r, &chains); err != nil {
		return nil, err
	}
	return chains, nil
}

func ExportRules(w io.Writer, rules []models.Rule) error {
	if rules == nil {
		rules = []models.Rule{}
	}
	return encodeList(w, rules)
}

func ExportChains(w io.Writer, chains []models.RuleChain) error {
	if chains == nil {
		chains = []models.RuleChain{}
	}
	return encodeList(w, chains)
}

// MergeRules appends imported rules to the existing ones and orders the
// result by ascending priority.
func MergeRules(existing, imported []models.Rule) []models.Rule {
	merged := make([]models.Rule, 0, len(existing)+len(imported))
	merged = append(merged, existing...)
	merged = append(merged, imported...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority < merged[j].Priority
	})
	return merged
}

func LoadRulesFile(path string) ([]models.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open rules file %s", path)
	}
	defer f.Close()

	rules, err := ImportRules(f)
	if err != nil {
		return nil, errors.Wrapf(err, "rules file %s", path)
	}
	return rules, nil
}

func LoadChainsFile(path string) ([]models.RuleChain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open chains file %s", path)
	}
	defer f.Close()

	chains, err := ImportChains(f)
	if err != nil {
		return nil, errors.Wrapf(err, "chains file %s", path)
	}
	return chains, nil
}

func SaveRulesFile(path string, rules []models.Rule) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create rules file %s", path)
	}
	defer f.Close()
	return ExportRules(f, rules)
}

func decodeList(r io.Reader, target interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read rule payload")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return mailsort_errors.ErrInvalidRuleFormat
	}

	if err = json.Unmarshal(trimmed, target); err != nil {
		return errors.Wrap(mailsort_errors.ErrInvalidRuleFormat, err.Error())
	}
	return nil
}

func encodeList(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return errors.Wrap(err, "encode rule payload")
	}
	return nil
}

func trimmedEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
