// Package openclaw materializes an organization as a deployable package for
// the OpenClaw agent runtime: one workspace per agent with its instruction
// documents, shared references, the openclaw.json manifest and install.sh.
package openclaw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/viableos/viableos/internal/format"
	"github.com/viableos/viableos/vsm"
)

const (
	// InstallScript is the provisioning script at the package root.
	InstallScript = "install.sh"
	// SharedDir holds documents copied to the runtime's shared directory.
	SharedDir = "shared"
)

// LockTimeout bounds how long GeneratePackage waits for another generation
// into the same output directory to finish.
var LockTimeout = 5 * time.Second

type file struct {
	path string // slash-separated, relative to the package root
	data []byte
	mode os.FileMode
}

// GeneratePackage writes the package for cfg to outputDir and returns its
// absolute path. The directory is always replaced as a whole: everything is
// rendered into a sibling staging directory first, so on failure the previous
// contents are left untouched. Concurrent generations into the same
// directory serialize on an advisory lock file "<outputDir>.lock" beside it;
// the lock file is left in place afterwards. cfg is assumed to have passed
// vsm.Validate.
func GeneratePackage(cfg *vsm.Config, outputDir string) (string, error) {
	if err := checkWorkspaceCollisions(cfg.ViableSystem.Units); err != nil {
		return "", err
	}
	files, agents, err := buildPackage(cfg)
	if err != nil {
		return "", err
	}
	if err := checkLocal(files); err != nil {
		return "", err
	}

	out, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	lock, err := lockOutput(out)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.Unlock() }()

	staging, err := os.MkdirTemp(filepath.Dir(out), "."+filepath.Base(out)+"-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	for _, f := range files {
		dst := filepath.Join(staging, filepath.FromSlash(f.path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return "", fmt.Errorf("writing %s: %w", f.path, err)
		}
		if err := os.WriteFile(dst, f.data, f.mode); err != nil {
			return "", fmt.Errorf("writing %s: %w", f.path, err)
		}
		// WriteFile applies the mode only on create and through the umask.
		if err := os.Chmod(dst, f.mode); err != nil {
			return "", fmt.Errorf("writing %s: %w", f.path, err)
		}
	}

	if err := os.RemoveAll(out); err != nil {
		return "", fmt.Errorf("removing previous package: %w", err)
	}
	if err := os.Rename(staging, out); err != nil {
		return "", fmt.Errorf("moving package into place: %w", err)
	}
	logrus.Infof("generated package %s: %d agents, %d files", out, agents, len(files))
	return out, nil
}

// checkWorkspaceCollisions rejects units whose names map to the same workspace.
func checkWorkspaceCollisions(units []vsm.Unit) error {
	seen := make(map[string]string, len(units))
	for _, u := range units {
		id := vsm.UnitAgentID(u.Name)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("units %q and %q both map to workspace %s", prev, u.Name, id)
		}
		seen[id] = u.Name
	}
	return nil
}

// checkLocal rejects files whose path would leave the package root.
func checkLocal(files []file) error {
	for _, f := range files {
		if !filepath.IsLocal(filepath.FromSlash(f.path)) {
			return fmt.Errorf("refusing to write %s outside the package", f.path)
		}
	}
	return nil
}

// lockOutput takes an exclusive lock next to out for the duration of a generation.
func lockOutput(out string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating output parent directory: %w", err)
	}
	lock := flock.New(out + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", out, err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", out)
	}
	return lock, nil
}

// buildPackage renders every file of the package in memory.
func buildPackage(cfg *vsm.Config) ([]file, int, error) {
	sys := &cfg.ViableSystem
	plan := vsm.CalculateBudget(cfg)
	rules := vsm.EffectiveRules(sys)

	unitNames := make([]string, len(sys.Units))
	for i, u := range sys.Units {
		unitNames[i] = u.Name
	}

	base := docData{
		Org:          sys,
		Plan:         plan,
		Units:        unitNames,
		Channel:      sys.HumanInTheLoop.Channel(),
		BudgetTable:  format.BudgetTable(plan, format.Markdown),
		RoutingTable: format.RoutingTable(plan, format.Markdown),
	}
	for _, u := range sys.Units {
		base.Roster = append(base.Roster, rosterEntry{Name: u.Name, Role: vsm.OperationsTitle, Purpose: u.Purpose})
	}
	for _, r := range vsm.ManagementRoles {
		base.Roster = append(base.Roster, rosterEntry{Name: r.Name, Role: r.Title, Purpose: r.Purpose})
	}

	var (
		files   []file
		entries []AgentEntry
	)
	addWorkspace := func(entry AgentEntry, d docData) error {
		kind := roleKind(entry.ID)
		d.AgentID = entry.ID
		d.Workspace = entry.Workspace
		d.MessageTypes = messageTypes[kind]
		d.Model = entry.Model
		d.HeartbeatModel = entry.HeartbeatModel
		if d.HeartbeatModel == "" {
			d.HeartbeatModel = entry.Model
		}
		for _, doc := range roleDocs {
			data, err := render(kind+"/"+doc, d)
			if err != nil {
				return err
			}
			files = append(files, file{path.Join(entry.Workspace, doc), data, 0o644})
		}
		for _, doc := range commonDocs {
			data, err := render(doc, d)
			if err != nil {
				return err
			}
			files = append(files, file{path.Join(entry.Workspace, doc), data, 0o644})
		}
		entries = append(entries, entry)
		logrus.Debugf("workspace %s: model %s, heartbeat %s", entry.Workspace, entry.Model, d.HeartbeatModel)
		return nil
	}

	for i := range sys.Units {
		u := &sys.Units[i]
		alloc, _ := plan.Allocation(vsm.UnitSystem(u.Name))
		var tools *ToolPolicy
		if len(u.Tools) > 0 {
			tools = &ToolPolicy{Allow: append([]string(nil), u.Tools...)}
		}
		entry := newAgentEntry(vsm.UnitAgentID(u.Name), u.Name, alloc.Model, tools)

		d := base
		d.Agent = u.Name
		d.Role = vsm.OperationsTitle
		d.Allocation = alloc.MonthlyUSD
		d.Unit = u
		d.Rules = vsm.RulesMentioning(rules, u.Name)
		for _, n := range unitNames {
			if n != u.Name {
				d.Peers = append(d.Peers, n)
			}
		}
		if cm := plan.Routing[vsm.RoleComplex]; cm != alloc.Model {
			d.ComplexModel = cm
		}
		if err := addWorkspace(entry, d); err != nil {
			return nil, 0, err
		}
	}

	for _, role := range vsm.ManagementRoles {
		alloc, _ := plan.Allocation(role.System)
		entry := newAgentEntry(role.AgentID, role.Name, alloc.Model, toolsFor(role.AgentID))

		d := base
		d.Agent = role.Name
		d.Role = role.Title
		d.Allocation = alloc.MonthlyUSD
		switch role.AgentID {
		case vsm.AgentCoordinator:
			d.Rules = rules
			d.Isolation = vsm.WorkspaceIsolationRules(sys.Units)
		case vsm.AgentAuditor:
			d.OnFailure = sys.Audit.OnFailure
			if d.OnFailure == "" {
				d.OnFailure = vsm.DefaultOnFailure
			}
		case vsm.AgentScout:
			m := sys.Intelligence.Monitoring
			d.Sources = append(append(append([]string(nil), m.Competitors...), m.Technology...), m.Regulation...)
		}
		if err := addWorkspace(entry, d); err != nil {
			return nil, 0, err
		}
	}

	shared := base
	shared.Rules = rules
	for _, doc := range []string{"org_memory.md", "coordination_rules.md", "budget.md"} {
		data, err := render(doc, shared)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, file{path.Join(SharedDir, doc), data, 0o644})
	}

	manifest, err := encodeManifest(newManifest(entries, sys))
	if err != nil {
		return nil, 0, err
	}
	files = append(files, file{ManifestFile, manifest, 0o644})

	script, err := render(InstallScript, newInstallData(sys, entries))
	if err != nil {
		return nil, 0, err
	}
	files = append(files, file{InstallScript, script, 0o755})
	return files, len(entries), nil
}

func newManifest(entries []AgentEntry, sys *vsm.System) *Manifest {
	m := &Manifest{
		Agents:              AgentList{List: entries},
		CommunicationMatrix: vsm.NewCommunicationMatrix(vsm.UnitAgentIDs(sys.Units)),
	}
	if len(entries) > 0 {
		m.Bindings = []Binding{{AgentID: entries[0].ID, Match: BindingMatch{Channel: sys.HumanInTheLoop.Channel()}}}
	}
	return m
}

func encodeManifest(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ManifestFile, err)
	}
	return buf.Bytes(), nil
}

// newInstallData splits the agents into the three rollout phases: the first
// unit with the coordinator, the remaining units, then the other management
// roles.
func newInstallData(sys *vsm.System, entries []AgentEntry) installData {
	byID := make(map[string]AgentEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	units := entries[:len(sys.Units)]

	d := installData{
		Name:        sys.Name,
		Coordinator: vsm.AgentCoordinator,
		Total:       len(entries),
		FirstUnit:   AgentEntry{ID: "s1-unit", Name: "the first unit"},
	}
	if d.Name == "" {
		d.Name = vsm.DefaultSystemName
	}
	if len(units) > 0 {
		d.FirstUnit = units[0]
		d.Phase1 = append(d.Phase1, units[0])
		d.Phase2 = units[1:]
	}
	d.Phase1 = append(d.Phase1, byID[vsm.AgentCoordinator])
	for _, id := range []string{vsm.AgentOptimizer, vsm.AgentScout, vsm.AgentAuditor, vsm.AgentPolicy} {
		d.Phase3 = append(d.Phase3, byID[id])
	}
	return d
}
