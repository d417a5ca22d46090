package openclaw

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viableos/viableos/vsm"
	"github.com/viableos/viableos/vsm/internal/testutil"
)

func loadConfig(t *testing.T, name string) *vsm.Config {
	t.Helper()
	doc, err := vsm.ParseDocument(testutil.ReadFixture(t, name), vsm.FormatFromPath(name))
	require.NoError(t, err)
	require.Empty(t, vsm.Validate(doc))
	cfg, err := vsm.Decode(doc)
	require.NoError(t, err)
	return cfg
}

func generate(t *testing.T, cfg *vsm.Config) string {
	t.Helper()
	out, err := GeneratePackage(cfg, filepath.Join(t.TempDir(), "pkg"))
	require.NoError(t, err)
	return out
}

func readManifest(t *testing.T, out string) *Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, ManifestFile))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return &m
}

func readFile(t *testing.T, out string, rel ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(append([]string{out}, rel...)...))
	require.NoError(t, err)
	return string(data)
}

func workspaces(t *testing.T, out string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(out, vsm.WorkspaceRoot))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestGeneratePackage_OneWorkspacePerAgent(t *testing.T) {
	// GIVEN an organization with two units
	cfg := loadConfig(t, testutil.Complete)

	// WHEN the package is generated
	out := generate(t, cfg)

	// THEN there are N+5 agents, each with a workspace, and nothing else
	m := readManifest(t, out)
	require.Len(t, m.Agents.List, 2+5)
	var ids []string
	for _, a := range m.Agents.List {
		ids = append(ids, a.ID)
		assert.Equal(t, vsm.WorkspaceRoot+"/"+a.ID, a.Workspace)
	}
	sort.Strings(ids)
	assert.Equal(t, ids, workspaces(t, out))
	assert.Equal(t, []string{
		"s1-dev", "s1-sales",
		vsm.AgentCoordinator, vsm.AgentOptimizer, vsm.AgentAuditor, vsm.AgentScout, vsm.AgentPolicy,
	}, func() []string {
		var order []string
		for _, a := range m.Agents.List {
			order = append(order, a.ID)
		}
		return order
	}())
}

func TestGeneratePackage_EveryWorkspaceHasAllDocuments(t *testing.T) {
	out := generate(t, loadConfig(t, testutil.Complete))

	for _, ws := range workspaces(t, out) {
		for _, doc := range append(append([]string(nil), roleDocs...), commonDocs...) {
			info, err := os.Stat(filepath.Join(out, vsm.WorkspaceRoot, ws, doc))
			require.NoError(t, err, "%s/%s", ws, doc)
			assert.Positive(t, info.Size(), "%s/%s", ws, doc)
		}
	}
	for _, doc := range []string{"org_memory.md", "coordination_rules.md", "budget.md"} {
		assert.FileExists(t, filepath.Join(out, SharedDir, doc))
	}
}

func TestGeneratePackage_AuditorCannotWrite(t *testing.T) {
	out := generate(t, loadConfig(t, testutil.Complete))

	auditor, ok := readManifest(t, out).Agent(vsm.AgentAuditor)

	require.True(t, ok)
	require.NotNil(t, auditor.Tools)
	assert.Equal(t, []string{"write", "edit", "apply_patch"}, auditor.Tools.Deny)
	assert.NotContains(t, auditor.Tools.Allow, "write")
}

func TestGeneratePackage_ManifestModels(t *testing.T) {
	// GIVEN a unit pinned to a model and one on the routine model
	cfg := loadConfig(t, testutil.Complete)
	plan := vsm.CalculateBudget(cfg)

	// WHEN generated
	m := readManifest(t, generate(t, cfg))

	// THEN each entry carries its model, a fallback chain and a cheaper heartbeat
	dev, ok := m.Agent("s1-dev")
	require.True(t, ok)
	assert.Equal(t, "openai/gpt-5.1-codex", dev.Model)
	assert.Equal(t, []string{"github", "deployment"}, dev.Tools.Allow)

	sales, _ := m.Agent("s1-sales")
	assert.Equal(t, plan.Routing[vsm.RoleRoutine], sales.Model)
	assert.Equal(t, []string{"crm"}, sales.Tools.Allow)

	for _, a := range m.Agents.List {
		assert.NotEmpty(t, a.Fallbacks, a.ID)
		assert.NotContains(t, a.Fallbacks, a.Model, a.ID)
		assert.NotEqual(t, a.Model, a.HeartbeatModel, a.ID)
	}
}

func TestGeneratePackage_ManifestRoutingAndPermissions(t *testing.T) {
	m := readManifest(t, generate(t, loadConfig(t, testutil.Complete)))

	require.Len(t, m.Bindings, 1)
	assert.Equal(t, "s1-dev", m.Bindings[0].AgentID)
	assert.Equal(t, "whatsapp", m.Bindings[0].Match.Channel)
	assert.True(t, m.CanMessage("s1-sales", vsm.AgentCoordinator))
	assert.False(t, m.CanMessage("s1-sales", "s1-dev"))
	assert.Equal(t, []string{vsm.AgentCoordinator, vsm.AgentOptimizer}, m.Subagents.AllowAgents)
}

func TestGeneratePackage_InstallScript(t *testing.T) {
	// GIVEN three units
	cfg := loadConfig(t, testutil.Complete)
	cfg.ViableSystem.Units = append(cfg.ViableSystem.Units, vsm.Unit{Name: "Support", Purpose: "Help customers"})

	// WHEN generated
	out := generate(t, cfg)

	// THEN install.sh is executable
	info, err := os.Stat(filepath.Join(out, InstallScript))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// AND installs in phases: first unit and coordinator, other units, management
	script := readFile(t, out, InstallScript)
	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	order := []string{
		"[Phase 1] Adding: Dev (s1-dev)",
		"[Phase 1] Adding: Coordinator (s2-coordination)",
		"[Phase 2] Adding: Sales (s1-sales)",
		"[Phase 2] Adding: Support (s1-support)",
		"[Phase 3] Adding: Optimizer (s3-optimization)",
		"[Phase 3] Adding: Scout (s4-intelligence)",
		"[Phase 3] Adding: Auditor (s3star-audit)",
		"[Phase 3] Adding: Policy Guardian (s5-policy)",
	}
	last := -1
	for _, line := range order {
		idx := strings.Index(script, line)
		require.NotEqual(t, -1, idx, line)
		assert.Greater(t, idx, last, line)
		last = idx
	}
	assert.Contains(t, script, "command -v openclaw")
	assert.Contains(t, script, "IMPORTANT: Start Small")
	assert.Contains(t, script, "Setup complete: 8 agents configured")
	assert.Contains(t, script, "Start Dev alone: openclaw --agent s1-dev")
}

func TestGeneratePackage_SingleUnitSkipsPhaseTwo(t *testing.T) {
	out := generate(t, loadConfig(t, testutil.Minimal))

	script := readFile(t, out, InstallScript)

	assert.NotContains(t, script, "Phase 2")
	assert.Contains(t, script, "[Phase 1] Adding: Operations (s1-operations)")
}

func TestGeneratePackage_OverwriteRemovesStaleFiles(t *testing.T) {
	// GIVEN a previous package with a unit that no longer exists and a stray file
	cfg := loadConfig(t, testutil.Complete)
	out := generate(t, cfg)
	stray := testutil.WriteFile(t, out, "notes.txt", []byte("old"))

	// WHEN the package is regenerated without Sales
	cfg.ViableSystem.Units = cfg.ViableSystem.Units[:1]
	again, err := GeneratePackage(cfg, out)
	require.NoError(t, err)

	// THEN the output reflects only the current organization
	assert.Equal(t, out, again)
	assert.NoFileExists(t, stray)
	assert.NotContains(t, workspaces(t, out), "s1-sales")
	assert.Len(t, readManifest(t, out).Agents.List, 6)
}

func TestGeneratePackage_NoStagingLeftBehind(t *testing.T) {
	parent := t.TempDir()
	_, err := GeneratePackage(loadConfig(t, testutil.Minimal), filepath.Join(parent, "pkg"))
	require.NoError(t, err)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".pkg-"), e.Name())
	}
}

func TestGeneratePackage_SlugCollision_WritesNothing(t *testing.T) {
	// GIVEN two units whose names map to the same workspace
	cfg := loadConfig(t, testutil.Minimal)
	cfg.ViableSystem.Units = []vsm.Unit{{Name: "R&D", Purpose: "a"}, {Name: "randd", Purpose: "b"}}
	out := filepath.Join(t.TempDir(), "pkg")

	// WHEN generation is attempted
	_, err := GeneratePackage(cfg, out)

	// THEN it fails naming both units and leaves no output
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"R&D" and "randd"`)
	assert.NoDirExists(t, out)
}

func TestGeneratePackage_LockedOutput_TimesOut(t *testing.T) {
	// GIVEN another process holding the output lock
	out := filepath.Join(t.TempDir(), "pkg")
	held := flock.New(out + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	prev := LockTimeout
	LockTimeout = 200 * time.Millisecond
	defer func() { LockTimeout = prev }()

	// WHEN generation is attempted
	_, err = GeneratePackage(loadConfig(t, testutil.Minimal), out)

	// THEN it gives up without writing
	require.Error(t, err)
	assert.NoDirExists(t, out)
}

func TestGeneratePackage_LockFileStaysBesideOutput(t *testing.T) {
	// GIVEN a completed generation
	parent := t.TempDir()
	out, err := GeneratePackage(loadConfig(t, testutil.Minimal), filepath.Join(parent, "pkg"))
	require.NoError(t, err)

	// THEN the lock file sits next to the package, not inside it
	assert.FileExists(t, filepath.Join(parent, "pkg.lock"))
	assert.NoFileExists(t, filepath.Join(out, "pkg.lock"))

	// AND a later generation can take it again
	_, err = GeneratePackage(loadConfig(t, testutil.Minimal), out)
	require.NoError(t, err)
}

func TestGeneratePackage_UnitNameWithSeparators_StaysInside(t *testing.T) {
	// GIVEN a unit whose name looks like a relative path
	cfg := loadConfig(t, testutil.Minimal)
	cfg.ViableSystem.Units = []vsm.Unit{{Name: "x/../../../escaped", Purpose: "Ship"}}
	root := t.TempDir()
	out := filepath.Join(root, "a", "b", "pkg")

	// WHEN the package is generated
	_, err := GeneratePackage(cfg, out)
	require.NoError(t, err)

	// THEN its workspace is a single directory under the package
	assert.Contains(t, workspaces(t, out), "s1-x----------escaped")
	assert.NoDirExists(t, filepath.Join(root, "escaped"))
	assert.NoDirExists(t, filepath.Join(root, "a", "escaped"))
}

func TestCheckLocal(t *testing.T) {
	ok := []file{{path: "workspaces/s1-dev/SOUL.md"}, {path: InstallScript}}
	assert.NoError(t, checkLocal(ok))

	for _, p := range []string{"../escaped/SOUL.md", "workspaces/../../x", "/etc/passwd", ""} {
		err := checkLocal(append(ok, file{path: p}))
		require.Error(t, err, p)
		assert.Contains(t, err.Error(), "outside the package", p)
	}
}

func TestGeneratePackage_InstallScript_QuotesNames(t *testing.T) {
	bash, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}

	// GIVEN names carrying quotes and command substitutions
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	hostile := `Bob's "Shop" $(touch ` + marker + `) ` + "`touch " + marker + "`"
	cfg := loadConfig(t, testutil.Minimal)
	cfg.ViableSystem.Name = hostile + "\nsecond line"
	cfg.ViableSystem.Units = []vsm.Unit{{Name: hostile, Purpose: "Ship"}}

	// WHEN the package is generated
	out := generate(t, cfg)
	script := filepath.Join(out, InstallScript)

	// THEN the script parses
	check := exec.Command(bash, "-n", script)
	msg, err := check.CombinedOutput()
	require.NoError(t, err, string(msg))

	// AND running it against a stub openclaw echoes the names verbatim without executing them
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(bin, 0o755))
	testutil.WriteFile(t, bin, "openclaw", []byte("#!/bin/sh\nexit 0\n"))
	require.NoError(t, os.Chmod(filepath.Join(bin, "openclaw"), 0o755))
	run := exec.Command(bash, script)
	run.Env = append(os.Environ(), "PATH="+bin+string(os.PathListSeparator)+os.Getenv("PATH"), "HOME="+dir)
	msg, err = run.CombinedOutput()
	require.NoError(t, err, string(msg))
	assert.Contains(t, string(msg), "Adding: "+hostile+" (s1-")
	assert.NoFileExists(t, marker)
}

func TestGeneratePackage_UnitDocuments(t *testing.T) {
	cfg := loadConfig(t, testutil.Complete)
	plan := vsm.CalculateBudget(cfg)
	out := generate(t, cfg)

	soul := readFile(t, out, vsm.WorkspaceRoot, "s1-sales", "SOUL.md")

	assert.True(t, strings.HasPrefix(soul, "# Sales\n"))
	assert.Contains(t, soul, "Routine work runs on "+plan.Routing[vsm.RoleRoutine])
	assert.Contains(t, soul, plan.Routing[vsm.RoleComplex])
	assert.Contains(t, soul, "Delete production data")
	assert.Contains(t, soul, "- Dev")
	assert.Contains(t, soul, "When: Dev deploys -> Notify Sales")
}

func TestGeneratePackage_BudgetTables(t *testing.T) {
	cfg := loadConfig(t, testutil.Complete)
	out := generate(t, cfg)

	for _, doc := range []string{
		filepath.Join(vsm.WorkspaceRoot, vsm.AgentOptimizer, "SOUL.md"),
		filepath.Join(SharedDir, "budget.md"),
	} {
		got := readFile(t, out, doc)
		assert.Contains(t, got, "| System", doc)
		assert.Contains(t, got, "$200.00", doc)
		assert.Contains(t, got, "S1:Dev", doc)
	}
}

func TestGeneratePackage_ManagementDocuments(t *testing.T) {
	cfg := loadConfig(t, testutil.Complete)
	out := generate(t, cfg)

	coordinator := readFile(t, out, vsm.WorkspaceRoot, vsm.AgentCoordinator, "SOUL.md")
	assert.Contains(t, coordinator, "workspaces/s1-sales")

	auditor := readFile(t, out, vsm.WorkspaceRoot, vsm.AgentAuditor, "SOUL.md")
	assert.Contains(t, auditor, "Review commits")
	assert.Contains(t, auditor, "Alert human")

	scout := readFile(t, out, vsm.WorkspaceRoot, vsm.AgentScout, "SOUL.md")
	for _, source := range []string{"Rival", "AI models", "GDPR"} {
		assert.Contains(t, scout, source)
	}

	roster := readFile(t, out, vsm.WorkspaceRoot, "s1-dev", "AGENTS.md")
	assert.Equal(t, roster, readFile(t, out, vsm.WorkspaceRoot, vsm.AgentPolicy, "AGENTS.md"))
	assert.Contains(t, roster, "Policy Guardian")
}

func TestGeneratePackage_AllStarters(t *testing.T) {
	for _, info := range vsm.Starters() {
		t.Run(info.Key, func(t *testing.T) {
			cfg, err := vsm.Starter(info.Key)
			require.NoError(t, err)

			out := generate(t, cfg)

			assert.Len(t, workspaces(t, out), info.Units+5)
			assert.Len(t, readManifest(t, out).Agents.List, info.Units+5)
		})
	}
}
