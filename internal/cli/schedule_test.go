package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adderScenario is a small inline scenario every command test can run:
// a two-input adder scheduled as late as possible in a 5-cycle period.
// All its values are consumed the cycle they are produced.
const adderScenario = `
name: cli-adder
description: two-input adder scheduled late in a preset period
graph:
  operations:
    - id: in0
      type: Input
      execution_time: 0
    - id: in1
      type: Input
      execution_time: 0
    - id: add0
      type: Addition
      offsets:
        out0: 3
      execution_time: 1
    - id: out0
      type: Output
      execution_time: 0
  signals:
    - from: in0.out0
      to: add0.in0
    - from: in1.out0
      to: add0.in1
    - from: add0.out0
      to: out0.in0
strategy: alap
schedule_time: 5
expect:
  schedule_time: 5
  start_times:
    in0: 2
    in1: 2
    add0: 2
    out0: 5
`

func writeAdderScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli-adder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(adderScenario), 0o644))
	return path
}

func TestScheduleTextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewScheduleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeAdderScenario(t)})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "scenario:      cli-adder")
	assert.Contains(t, output, "strategy:      alap")
	assert.Contains(t, output, "schedule time: 5")
	assert.Contains(t, output, "add0")
}

func TestScheduleJSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewScheduleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeAdderScenario(t)})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	var doc struct {
		ScheduleTime int            `json:"schedule_time"`
		StartTimes   map[string]int `json:"start_times"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	assert.Equal(t, 5, doc.ScheduleTime)
	assert.Equal(t, 2, doc.StartTimes["add0"])
	assert.Equal(t, 5, doc.StartTimes["out0"])
}

func TestScheduleMissingScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewScheduleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScheduleArchivesRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewScheduleCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, writeAdderScenario(t)})

	require.NoError(t, cmd.Execute())

	token := extractToken(t, buf.String())

	// The archived run must be retrievable through the runs commands.
	listBuf := &bytes.Buffer{}
	listCmd := NewRunsCommand(rootOpts)
	listCmd.SetOut(listBuf)
	listCmd.SetArgs([]string{"list", "--db", dbPath})
	require.NoError(t, listCmd.Execute())
	assert.Contains(t, listBuf.String(), token)
	assert.Contains(t, listBuf.String(), "schedule")
	assert.Contains(t, listBuf.String(), "inline:cli-adder")

	showBuf := &bytes.Buffer{}
	showCmd := NewRunsCommand(rootOpts)
	showCmd.SetOut(showBuf)
	showCmd.SetArgs([]string{"show", "--db", dbPath, token})
	require.NoError(t, showCmd.Execute())
	assert.Contains(t, showBuf.String(), token)
	assert.Contains(t, showBuf.String(), `"schedule_time":5`)
}

func TestRunsShowUnknownToken(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	// Create an empty database first so only the token lookup fails.
	listBuf := &bytes.Buffer{}
	listCmd := NewRunsCommand(&RootOptions{Format: "text"})
	listCmd.SetOut(listBuf)
	listCmd.SetArgs([]string{"list", "--db", dbPath})
	require.NoError(t, listCmd.Execute())
	assert.Contains(t, listBuf.String(), "no runs archived")

	showCmd := NewRunsCommand(&RootOptions{Format: "text"})
	showCmd.SetOut(&bytes.Buffer{})
	showCmd.SetArgs([]string{"show", "--db", dbPath, "0198c5f0-0000-7000-8000-000000000000"})
	err := showCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

var tokenPattern = regexp.MustCompile(`archived as ([0-9a-f-]{36})`)

func extractToken(t *testing.T, output string) string {
	t.Helper()
	m := tokenPattern.FindStringSubmatch(output)
	require.NotNil(t, m, "output should contain the archive token: %s", output)
	return m[1]
}
