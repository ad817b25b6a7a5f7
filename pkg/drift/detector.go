// Package drift compares the current bundle against recorded governance
// state and classifies every divergence it finds.
//
// Detection is read-only. It never mutates the bundle, the lockfile, or the
// allow-list, and it never decides process exit codes; callers do.
package drift

import (
	"fmt"

	"github.com/wardenhq/warden/api/v1beta1/allowlists"
	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/lockfile"
	"github.com/wardenhq/warden/pkg/policy"
)

// Input carries everything a detection pass reads.
type Input struct {
	// Current is the merged bundle with overlays applied.
	Current *bundle.Bundle
	// Upstream is the merged bundle before overlays. Lockfile and upstream
	// hashes are computed from it, so local overrides never read as origin
	// drift; when nil, Current stands in and severity remap checks are
	// skipped.
	Upstream *bundle.Bundle
	// Lockfile is the last approved snapshot. When nil, lockfile and
	// upstream checks are skipped.
	Lockfile *lockfile.Lockfile
	// AllowList informs suggestions; an approved current hash suggests
	// regeneration rather than review.
	AllowList *allowlists.AllowList
	// RemapPolicy decides which severity overrides are acceptable. When
	// nil, every override is acceptable.
	RemapPolicy *policy.RemapPolicy
}

// Detect compares current state against recorded state and returns every
// finding, ordered lockfile first, then upstream by rule, then severity
// remaps by rule.
func Detect(in Input) ([]Finding, error) {
	var findings []Finding

	if in.Lockfile != nil {
		lockFindings, err := detectLockfile(in)
		if err != nil {
			return nil, err
		}

		findings = append(findings, lockFindings...)
	}

	if in.Upstream != nil && in.Current != nil {
		remapFindings, err := detectSeverityRemaps(in)
		if err != nil {
			return nil, err
		}

		findings = append(findings, remapFindings...)
	}

	return findings, nil
}

func detectLockfile(in Input) ([]Finding, error) {
	origin := in.Upstream
	if origin == nil {
		origin = in.Current
	}

	hashes, err := origin.RuleHashes()
	if err != nil {
		return nil, fmt.Errorf("hash current bundle: %w", err)
	}

	rules := make([]lockfile.RuleLock, 0, len(hashes))
	for _, rh := range hashes {
		rules = append(rules, lockfile.RuleLock{RuleID: rh.RuleID, ContentHash: rh.ContentHash})
	}

	bundleHash, err := lockfile.ComputeBundleHash(in.Lockfile.Mode, rules)
	if err != nil {
		return nil, fmt.Errorf("hash current bundle: %w", err)
	}

	var findings []Finding

	if bundleHash != in.Lockfile.BundleHash {
		findings = append(findings, Finding{
			Category:     CategoryLockfile,
			Description:  "bundle hash no longer matches the lockfile",
			Suggestion:   bundleSuggestion(in.AllowList, bundleHash),
			RecordedHash: in.Lockfile.BundleHash,
			CurrentHash:  bundleHash,
		})
	}

	for _, rule := range rules {
		recorded, ok := in.Lockfile.RuleHash(rule.RuleID)
		if !ok || recorded == rule.ContentHash {
			continue
		}

		findings = append(findings, Finding{
			Category:     CategoryUpstream,
			RuleID:       rule.RuleID,
			Description:  fmt.Sprintf("rule %s changed at its origin since the lockfile was generated", rule.RuleID),
			Suggestion:   "review the upstream change, then run `warden lock generate`",
			RecordedHash: recorded,
			CurrentHash:  rule.ContentHash,
		})
	}

	return findings, nil
}

func bundleSuggestion(al *allowlists.AllowList, currentHash string) string {
	if al != nil && al.IsApproved(currentHash) {
		return "the current hash is already approved; run `warden lock generate`"
	}

	return "review the changes, approve the new hash, then run `warden lock generate`"
}

// detectSeverityRemaps flags overlay-applied severity changes the remap
// policy rejects. Sections are matched by fingerprint so reordering and
// renaming never produce false positives.
func detectSeverityRemaps(in Input) ([]Finding, error) {
	var findings []Finding

	for _, current := range in.Current.Sections {
		upstream, ok := in.Upstream.SectionByFingerprint(current.Fingerprint())
		if !ok {
			continue
		}

		from := sectionSeverity(upstream)
		to := sectionSeverity(current)

		if from == to {
			continue
		}

		allowed := true

		if in.RemapPolicy != nil {
			var err error

			allowed, err = in.RemapPolicy.Allows(ruleVars(current), from, to)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", current.Fingerprint(), err)
			}
		}

		if allowed {
			continue
		}

		findings = append(findings, Finding{
			Category:    CategorySeverityRemap,
			RuleID:      current.Fingerprint(),
			Description: fmt.Sprintf("override remaps severity of %q from %s to %s, which the remap policy forbids", current.Heading, orNone(from), orNone(to)),
			Suggestion:  "remove the override or change the team remap policy",
		})
	}

	return findings, nil
}

func sectionSeverity(s *bundle.Section) string {
	sev, _ := s.VendorMetadata["severity"].(string)

	return sev
}

// ruleVars exposes a section to remap policy expressions.
func ruleVars(s *bundle.Section) map[string]any {
	return map[string]any{
		"id":       s.Fingerprint(),
		"heading":  s.Heading,
		"severity": sectionSeverity(s),
	}
}

func orNone(severity string) string {
	if severity == "" {
		return "(none)"
	}

	return severity
}
