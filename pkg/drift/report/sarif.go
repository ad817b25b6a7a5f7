package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wardenhq/warden/pkg/drift"
	"github.com/wardenhq/warden/pkg/version"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID  string       `json:"ruleId"`
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

// sarifRules describes each drift category once per run.
var sarifRules = []sarifRule{
	{ID: string(drift.CategoryLockfile), ShortDescription: sarifMessage{Text: "Bundle hash no longer matches the lockfile."}},
	{ID: string(drift.CategoryUpstream), ShortDescription: sarifMessage{Text: "A rule changed at its origin since the lockfile was generated."}},
	{ID: string(drift.CategorySeverityRemap), ShortDescription: sarifMessage{Text: "A local override remaps severity against the team policy."}},
}

func writeSARIF(w io.Writer, findings []drift.Finding) error {
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		text := f.Description
		if f.Suggestion != "" {
			text += ". " + f.Suggestion
		}

		results = append(results, sarifResult{
			RuleID:  string(f.Category),
			Level:   sarifLevel(f.Category),
			Message: sarifMessage{Text: text},
		})
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "warden",
				Version:        version.GetVersion(),
				InformationURI: "https://github.com/wardenhq/warden",
				Rules:          sarifRules,
			}},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(log)
	if err != nil {
		return fmt.Errorf("encode sarif log: %w", err)
	}

	return nil
}

func sarifLevel(c drift.Category) string {
	if c == drift.CategorySeverityRemap {
		return "error"
	}

	return "warning"
}
