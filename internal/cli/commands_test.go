package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azairamail/EASYAiPOS/internal/api"
)

const (
	addTable = `{"table":{"id":"T1","name":"Table 1","status":"AVAILABLE"}}`
	addMenu  = `{"item":{"id":"M1","name":"Kacchi Biryani","category":"Main","price":"100","inStock":true}}`
	addOrder = `{"order":{"id":"ORD-1","tableId":"T1","items":[{"cartItemId":"L1","id":"M1","name":"Kacchi Biryani","category":"Main","price":"100","quantity":1}],"status":"PENDING","type":"DINE_IN","timestamp":"2024-03-15T12:30:00Z","totalAmount":"105"}}`
)

type testEnv struct {
	dir    string
	config string
}

// newTestEnv writes a config for account acme whose account store and
// device store share one SQLite file under a temp dir.
func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "pos.db")
	cfg := fmt.Sprintf(`{
  "account": "acme",
  "local_path": %q,
  "store": {"driver": "sqlite", "sqlite_path": %q},
  "sync": {"debounce": "10ms"},
  "backup": {"dir": %q}%s
}`, db, db, filepath.Join(dir, "backups"), extra)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return testEnv{dir: dir, config: path}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func seedOrder(t *testing.T, env testEnv) {
	t.Helper()
	env.mustRun(t, "dispatch", "ADD_TABLE", "--args", addTable)
	env.mustRun(t, "dispatch", "ADD_MENU_ITEM", "--args", addMenu)
	env.mustRun(t, "dispatch", "ADD_ORDER", "--args", addOrder)
}

func TestDispatch_PersistsAcrossRuns(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "dispatch", "ADD_TABLE", "--args", addTable)
	assert.Contains(t, out, "Dispatched ADD_TABLE")

	out = env.mustRun(t, "--format", "json", "dispatch", "add_menu_item", "--args", addMenu)
	var resp struct {
		Status string         `json:"status"`
		Data   DispatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ADD_MENU_ITEM", string(resp.Data.Type))
	assert.Equal(t, 1, resp.Data.Tables)
	assert.Equal(t, "INV-1001", resp.Data.NextInvoice)
}

func TestDispatch_BadAction(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.run(t, "dispatch", "FLY_TO_MOON")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = env.run(t, "dispatch", "UPDATE_ORDER_STATUS", "--args", `{"orderId": 7}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDispatch_NeedsAccount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"local_path": %q}`, filepath.Join(dir, "pos.db"))), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "dispatch", "CLEAR_CART"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no account configured")
}

func TestReceipt_BillAndKitchen(t *testing.T) {
	env := newTestEnv(t, "")
	seedOrder(t, env)

	bill := env.mustRun(t, "receipt", "ORD-1")
	assert.Contains(t, bill, "Invoice: #INV-1001")
	assert.Contains(t, bill, "105.00")

	kot := env.mustRun(t, "receipt", "ORD-1", "--kot")
	assert.Contains(t, kot, "1 x Kacchi Biryani")

	_, err := env.run(t, "receipt", "ORD-404")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReport(t *testing.T) {
	env := newTestEnv(t, "")
	seedOrder(t, env)

	out := env.mustRun(t, "--format", "json", "report")
	var resp struct {
		Data struct {
			OrderCount int    `json:"orderCount"`
			TotalSales string `json:"totalSales"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.OrderCount)
	assert.Equal(t, "105", resp.Data.TotalSales)

	text := env.mustRun(t, "report")
	assert.Contains(t, text, "Total sales:")
	assert.Contains(t, text, "105.00")
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t, "")
	seedOrder(t, env)

	file := filepath.Join(env.dir, "snap.json")
	out := env.mustRun(t, "backup", "-o", file)
	assert.Contains(t, out, "Backed up 1 orders")

	out = env.mustRun(t, "validate", file)
	assert.Contains(t, out, "✓")

	// A fresh account restored from the file sees the same order.
	other := newTestEnv(t, "")
	out = other.mustRun(t, "restore", file)
	assert.Contains(t, out, "1 orders")

	bill := other.mustRun(t, "receipt", "ORD-1")
	assert.Contains(t, bill, "Invoice: #INV-1001")
}

func TestBackup_DefaultsToBackupDir(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun(t, "backup")

	entries, err := os.ReadDir(filepath.Join(env.dir, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^easypos_backup_\d{4}-\d{2}-\d{2}\.json$`, entries[0].Name())
}

func TestRestore_RejectsBadFile(t *testing.T) {
	env := newTestEnv(t, "")
	file := filepath.Join(env.dir, "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"version":"1.0","data":{"orders":[]}}`), 0o644))

	out, err := env.run(t, "restore", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FORMAT_ERROR")
}

func TestValidate_MixedFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o644))
	scenario := filepath.Join("..", "harness", "testdata", "scenarios", "dine_in_order.yaml")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--format", "json", "validate", scenario, bad})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data.Files, 2)
	assert.True(t, resp.Data.Files[0].Valid)
	assert.Equal(t, "scenario", resp.Data.Files[0].Kind)
	assert.False(t, resp.Data.Files[1].Valid)
	assert.Equal(t, "backup", resp.Data.Files[1].Kind)
	assert.Equal(t, 1, resp.Data.Invalid)
}

func TestJournalAndReplay(t *testing.T) {
	env := newTestEnv(t, "")
	seedOrder(t, env)

	out := env.mustRun(t, "--format", "json", "journal", "--type", "add_order")
	var journal struct {
		Data JournalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &journal))
	assert.Equal(t, "acme", journal.Data.Account)
	require.Len(t, journal.Data.Entries, 1)
	assert.Equal(t, "ADD_ORDER", string(journal.Data.Entries[0].Action.Type))

	out = env.mustRun(t, "--format", "json", "replay", "--verify")
	var replay struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &replay))
	assert.True(t, replay.Data.Deterministic)
	assert.Equal(t, 1, replay.Data.Orders)
	assert.Equal(t, 1, replay.Data.Tables)
	assert.Equal(t, "INV-1002", replay.Data.NextInvoice)
	require.NotNil(t, replay.Data.MatchesStore)
	assert.True(t, *replay.Data.MatchesStore, "store hash %s, replay hash %s", replay.Data.StoreHash, replay.Data.Hash)
}

func TestJournal_EmptyAccount(t *testing.T) {
	env := newTestEnv(t, "")
	out := env.mustRun(t, "journal", "--account", "nobody")
	assert.Contains(t, out, `No journal entries for "nobody"`)
}

func TestTestCommand_RunsScenarios(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"test", filepath.Join("..", "harness", "testdata", "scenarios")})
	require.NoError(t, cmd.Execute(), out.String())
	assert.Contains(t, out.String(), "✓ dine_in_order")
	assert.Contains(t, out.String(), "0 failed")
}

func TestTestCommand_Filter(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--format", "json", "test", filepath.Join("..", "harness", "testdata", "scenarios"), "--filter", "split*"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "split_order", resp.Data.Scenarios[0].Name)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
description: expects a table that was never added
flow:
  - action: CLEAR_CART
assertions:
  - type: table_status
    table: T1
    status: AVAILABLE
`), 0o644))

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"test", dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "✗ wrong")
	assert.Contains(t, out.String(), "table T1 not found")
}

func TestTestCommand_MissingDir(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"test", "/nonexistent/scenarios"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestToken(t *testing.T) {
	env := newTestEnv(t, `,
  "http": {"jwt_secret": "s3cret"}`)

	out := env.mustRun(t, "--format", "json", "token", "--ttl", "1h")
	var resp struct {
		Data TokenResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	account, err := api.ParseToken([]byte("s3cret"), resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "acme", account)
}

func TestToken_NeedsSecret(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, "token")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestReset_SurvivesReplay(t *testing.T) {
	env := newTestEnv(t, "")
	seedOrder(t, env)

	_, err := env.run(t, "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out := env.mustRun(t, "reset", "--yes")
	assert.Contains(t, out, "Cleared acme: 1 orders, 1 menu items, 1 tables")

	out = env.mustRun(t, "--format", "json", "replay", "--verify")
	var replay struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &replay))
	assert.Zero(t, replay.Data.Orders)
	assert.Zero(t, replay.Data.Tables)
	assert.Equal(t, "INV-1002", replay.Data.NextInvoice, "settings survive a reset")
	require.NotNil(t, replay.Data.MatchesStore)
	assert.True(t, *replay.Data.MatchesStore)

	_, err = env.run(t, "receipt", "ORD-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRestore_EmptyOrdersClearsLiveOrders(t *testing.T) {
	empty := newTestEnv(t, "")
	empty.mustRun(t, "dispatch", "ADD_MENU_ITEM", "--args", addMenu)
	file := filepath.Join(empty.dir, "empty.json")
	empty.mustRun(t, "backup", "-o", file)

	env := newTestEnv(t, "")
	seedOrder(t, env)
	out := env.mustRun(t, "restore", file)
	assert.Contains(t, out, "0 orders")

	_, err := env.run(t, "receipt", "ORD-1")
	require.Error(t, err)

	out = env.mustRun(t, "--format", "json", "replay", "--verify")
	var replay struct {
		Data ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &replay))
	assert.Zero(t, replay.Data.Orders)
	require.NotNil(t, replay.Data.MatchesStore)
	assert.True(t, *replay.Data.MatchesStore)
}
