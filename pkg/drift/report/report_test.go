package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/drift"
	"github.com/wardenhq/warden/pkg/drift/report"
)

var sampleFindings = []drift.Finding{
	{
		Category:     drift.CategoryLockfile,
		Description:  "bundle hash no longer matches the lockfile",
		Suggestion:   "review the changes, approve the new hash, then run `warden lock generate`",
		RecordedHash: "aaaa",
		CurrentHash:  "bbbb",
	},
	{
		Category:    drift.CategorySeverityRemap,
		RuleID:      "3f6c1c9a12ab34cd",
		Description: `override remaps severity of "Secrets" from critical to info, which the remap policy forbids`,
	},
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range report.Formats() {
		format, err := report.ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(format))
	}

	_, err := report.ParseFormat("xml")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestWrite_Human(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := report.Write(&buf, report.FormatHuman, sampleFindings, report.Options{
		GeneratedAt: time.Now().Add(-48 * time.Hour),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "lockfile generated 2 days ago")
	assert.Contains(t, out, "[lockfile]")
	assert.Contains(t, out, "[severity_remap] 3f6c1c9a12ab34cd")
	assert.Contains(t, out, "recorded aaaa")
	assert.Contains(t, out, "2 finding(s)")
}

func TestWrite_HumanEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := report.Write(&buf, report.FormatHuman, nil, report.Options{})
	require.NoError(t, err)
	assert.Equal(t, "no drift detected\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := report.Write(&buf, report.FormatJSON, sampleFindings, report.Options{})
	require.NoError(t, err)

	var decoded struct {
		Findings []drift.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleFindings, decoded.Findings)
}

func TestWrite_JSONEmptyIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Write(&buf, report.FormatJSON, nil, report.Options{}))
	assert.Contains(t, buf.String(), `"findings": []`)
}

func TestWrite_SARIF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := report.Write(&buf, report.FormatSARIF, sampleFindings, report.Options{})
	require.NoError(t, err)

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name string `json:"name"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID  string `json:"ruleId"`
				Level   string `json:"level"`
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))

	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)
	assert.Equal(t, "warden", log.Runs[0].Tool.Driver.Name)
	require.Len(t, log.Runs[0].Results, 2)
	assert.Equal(t, "lockfile", log.Runs[0].Results[0].RuleID)
	assert.Equal(t, "warning", log.Runs[0].Results[0].Level)
	assert.Equal(t, "error", log.Runs[0].Results[1].Level)
	assert.Contains(t, log.Runs[0].Results[0].Message.Text, "lockfile")
}
