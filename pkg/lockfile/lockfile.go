// Package lockfile persists the last team-approved bundle state: the bundle
// hash plus per-rule content hashes the drift detector compares against.
//
// Generating a lockfile and appending to the allow-list are the only two
// mutating entry points into persisted governance state; everything else in
// warden is read/compare-only.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wardenhq/warden/api"
	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/hash"
)

const (
	// Version is the current lockfile format version.
	Version = "1"

	// DefaultName is the lockfile name within a project directory.
	DefaultName = "warden.lock"
)

var ErrInvalidLockfile = errors.New("invalid lockfile")

// Lockfile records the last approved state of the bundle.
type Lockfile struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Version     string     `json:"version"`
	Mode        string     `json:"mode"`
	BundleHash  string     `json:"bundle_hash"`
	Rules       []RuleLock `json:"rules"`
}

// RuleLock records the approved content hash for one rule.
type RuleLock struct {
	RuleID      string `json:"rule_id"`
	ContentHash string `json:"content_hash"`
}

// ComputeBundleHash is the general-purpose hash generator for governance
// state: a canonical hash over the rule set and the governance config.
// Every lockfile's bundle_hash comes from this one function.
func ComputeBundleHash(mode string, rules []RuleLock) (string, error) {
	ruleDocs := make([]map[string]any, 0, len(rules))
	for _, r := range rules {
		ruleDocs = append(ruleDocs, map[string]any{
			"rule_id":      r.RuleID,
			"content_hash": r.ContentHash,
		})
	}

	sum, err := hash.Sum(map[string]any{
		"version": Version,
		"mode":    mode,
		"rules":   ruleDocs,
	})
	if err != nil {
		return "", fmt.Errorf("hash governance state: %w", err)
	}

	return sum, nil
}

// New builds a lockfile for the given rule hashes without touching disk.
func New(mode string, rules []RuleLock) (*Lockfile, error) {
	bundleHash, err := ComputeBundleHash(mode, rules)
	if err != nil {
		return nil, err
	}

	if rules == nil {
		rules = []RuleLock{}
	}

	return &Lockfile{
		Version:     Version,
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		Rules:       rules,
		BundleHash:  bundleHash,
	}, nil
}

// Generate builds a lockfile from the current merged bundle.
func Generate(b *bundle.Bundle, mode string) (*Lockfile, error) {
	hashes, err := b.RuleHashes()
	if err != nil {
		return nil, fmt.Errorf("hash bundle rules: %w", err)
	}

	rules := make([]RuleLock, 0, len(hashes))
	for _, h := range hashes {
		rules = append(rules, RuleLock{
			RuleID:      h.RuleID,
			ContentHash: h.ContentHash,
		})
	}

	return New(mode, rules)
}

// CreateEmpty writes an empty lockfile into cwd and returns it. Its
// bundle_hash is produced by [ComputeBundleHash] with an empty rule set, so
// it is byte-identical to what [Generate] yields for an empty bundle.
func CreateEmpty(cwd, mode string) (*Lockfile, error) {
	lf, err := New(mode, nil)
	if err != nil {
		return nil, err
	}

	err = lf.Write(Path(cwd))
	if err != nil {
		return nil, err
	}

	return lf, nil
}

// Path returns the lockfile path for a project directory.
func Path(cwd string) string {
	return filepath.Join(cwd, DefaultName)
}

// Load reads and validates a lockfile.
func Load(path string) (*Lockfile, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	var lf Lockfile

	err = json.Unmarshal(data, &lf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLockfile, path, err)
	}

	err = lf.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &lf, nil
}

// Validate checks structural invariants of a loaded lockfile.
func (lf *Lockfile) Validate() error {
	if lf.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidLockfile)
	}

	if lf.Mode == "" {
		return fmt.Errorf("%w: missing mode", ErrInvalidLockfile)
	}

	if lf.BundleHash == "" {
		return fmt.Errorf("%w: missing bundle_hash", ErrInvalidLockfile)
	}

	for i, r := range lf.Rules {
		if r.RuleID == "" || r.ContentHash == "" {
			return fmt.Errorf("%w: rule %d is incomplete", ErrInvalidLockfile, i)
		}
	}

	return nil
}

// RuleHash returns the recorded content hash for a rule ID.
func (lf *Lockfile) RuleHash(ruleID string) (string, bool) {
	for _, r := range lf.Rules {
		if r.RuleID == ruleID {
			return r.ContentHash, true
		}
	}

	return "", false
}

// Write persists the lockfile atomically so a concurrent reader never sees a
// partially written file.
func (lf *Lockfile) Write(path string) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lockfile: %w", err)
	}

	err = api.WriteFileAtomic(path, append(data, '\n'))
	if err != nil {
		return fmt.Errorf("write lockfile: %w", err)
	}

	return nil
}
