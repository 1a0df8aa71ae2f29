package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/beacon-labs/beacon-installer/internal/installer"
	"github.com/beacon-labs/beacon-installer/internal/rules"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the command tree in-process.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newProject creates a project that makes the beacon-app rule eligible, with
// one installed package staging a beacon-app payload.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "www"), 0o755))
	writeFile(t, filepath.Join(dir, "composer.json"), `{"name": "acme/site"}`)
	writeFile(t, filepath.Join(dir, "vendor", "composer", "installed.json"), `{
  "packages": [
    {"name": "acme/skeleton", "version": "1.4.0", "type": "library", "install-path": "../acme/skeleton"},
    {"name": "acme/util", "version": "dev-main", "type": "library", "install-path": "../acme/util"}
  ]
}`)
	writeFile(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install", "beacon-app", "config", "routes.php"), "<?php return [];\n")
	writeFile(t, filepath.Join(dir, "vendor", "acme", "skeleton", "src", "Kernel.php"), "<?php\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor", "acme", "util"), 0o755))
	return dir
}

func TestInstall(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := runCLI(t, "install", "post-install-cmd", "--project-dir", dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config", "routes.php"))
	assert.Contains(t, stdout, "- Add Dir "+filepath.Join(dir, "config"))
	assert.Contains(t, stdout, "- Add File "+filepath.Join(dir, "config", "routes.php"))
	assert.Contains(t, stdout, "- Installing acme/skeleton")
	assert.NoDirExists(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install"))
	assert.FileExists(t, filepath.Join(dir, "vendor", "acme", "skeleton", "src", "Kernel.php"))
}

func TestInstall_SecondRunIsQuiet(t *testing.T) {
	dir := newProject(t)

	_, _, err := runCLI(t, "install", "--project-dir", dir, "--no-cleanup")
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "- Installing")
	assert.NoDirExists(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install"))
}

func TestInstall_RejectsUnknownEvent(t *testing.T) {
	dir := newProject(t)
	_, _, err := runCLI(t, "install", "pre-autoload-dump", "--project-dir", dir)
	assert.ErrorContains(t, err, "unsupported event")
}

func TestInstall_DisabledInComposerJSON(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "composer.json"), `{"name": "acme/site", "extra": {"installer-disable": "1"}}`)

	stdout, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Beacon Installer was disabled\n", stdout)
	assert.NoFileExists(t, filepath.Join(dir, "config", "routes.php"))
	assert.DirExists(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install"))
}

func TestInstall_DisabledByLooseValue(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "composer.json"), `{"name": "acme/site", "extra": {"installer-disable": "yes"}}`)

	stdout, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Beacon Installer was disabled\n", stdout)
}

func TestInstall_DisabledInSettings(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, ".beacon-installer.yaml"), "disable: true\n")

	stdout, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Beacon Installer was disabled\n", stdout)
}

func TestInstall_DryRun(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := runCLI(t, "install", "--dry-run", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "- Installing acme/skeleton")
	assert.Contains(t, stdout, "Dry run: 1 file(s) from 1 package(s) would be added.")
	assert.NoFileExists(t, filepath.Join(dir, "config", "routes.php"))
	assert.DirExists(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install"))
}

func TestInstall_ComposerVendorDir(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.Rename(filepath.Join(dir, "vendor"), filepath.Join(dir, "lib")))
	writeFile(t, filepath.Join(dir, "composer.json"), `{"name": "acme/site", "config": {"vendor-dir": "lib"}}`)

	_, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config", "routes.php"))
}

func TestInstall_CustomRules(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "vendor", "acme", "skeleton", ".install", "site", "robots.txt"), "User-agent: *\n")
	writeFile(t, filepath.Join(dir, ".beacon-installer.yaml"), "rules:\n  - type: site\n    markers: [www]\n")

	_, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "robots.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "config", "routes.php"))
}

func TestInstall_PackageTypePaths(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, "vendor", "composer", "installed.json"), `[
  {"name": "acme/widget", "version": "1.0.0", "type": "beacon-widget", "install-path": "../acme/widget"}
]`)
	writeFile(t, filepath.Join(dir, "vendor", "acme", "widget", "www", "widget.js"), "js\n")
	writeFile(t, filepath.Join(dir, "vendor", "acme", "widget", "src", "Widget.php"), "<?php\n")
	writeFile(t, filepath.Join(dir, ".beacon-installer.yaml"),
		"rules:\n  - type: beacon-widget\n    match: package-type\n    paths: [www]\n")

	stdout, _, err := runCLI(t, "install", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "- Installing acme/widget")
	assert.FileExists(t, filepath.Join(dir, "www", "widget.js"))
	assert.NoFileExists(t, filepath.Join(dir, "src", "Widget.php"))

	stdout, _, err = runCLI(t, "check", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "copies www")
}

func TestInstall_InvalidSettings(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, ".beacon-installer.yaml"), "cleanup: sometimes\n")

	_, _, err := runCLI(t, "install", "--project-dir", dir)
	assert.ErrorContains(t, err, "/cleanup")
}

func TestPackages_JSON(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := runCLI(t, "packages", "--json", "--project-dir", dir)
	require.NoError(t, err)

	var entries []packageEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "acme/skeleton", entries[0].Name)
	assert.Equal(t, []string{"beacon-app"}, entries[0].Scaffolds)
	assert.Equal(t, filepath.Join(dir, "vendor", "acme", "skeleton"), entries[0].InstallPath)
	assert.Empty(t, entries[1].Scaffolds)
}

func TestPackages_Table(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := runCLI(t, "packages", "--with-scaffolds", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "acme/skeleton")
	assert.NotContains(t, stdout, "acme/util")
}

func TestPackages_Empty(t *testing.T) {
	stdout, _, err := runCLI(t, "packages", "--project-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No packages found")
}

func TestCheck(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := runCLI(t, "check", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "not found, using defaults")
	assert.Contains(t, stdout, "2 installed")
	assert.Contains(t, stdout, "missing: sdopx/plugin")
	assert.Contains(t, stdout, "missing: beacon/widget, app/tool/widget")
	assert.Contains(t, stdout, "beacon-app  eligible (1 package(s) with payload)")
}

type resolverFunc func(installer.Package) (string, error)

func (f resolverFunc) InstallPath(pkg installer.Package) (string, error) { return f(pkg) }

func TestCountPayloads(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/vendor/a/.install/beacon-app", 0o755))
	require.NoError(t, fsys.MkdirAll("/vendor/b/www", 0o755))
	pkgs := []installer.Package{{Name: "a", Type: "library"}, {Name: "b", Type: "beacon-widget"}}
	resolve := resolverFunc(func(pkg installer.Package) (string, error) { return "/vendor/" + pkg.Name, nil })

	n, err := countPayloads(fsys, rules.Rule{Type: "beacon-app", Markers: []string{"app"}}, pkgs, resolve)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = countPayloads(fsys, rules.Rule{Type: "beacon-widget", Match: rules.MatchPackageType, Paths: []string{"www"}}, pkgs, resolve)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = countPayloads(fsys, rules.Rule{Type: "beacon-app", Constraint: "not a range"}, pkgs, resolve)
	assert.ErrorContains(t, err, "beacon-app")
}

func TestCheck_InvalidSettings(t *testing.T) {
	dir := newProject(t)
	writeFile(t, filepath.Join(dir, ".beacon-installer.yaml"), "rules:\n  - type: beacon-app\n")

	stdout, _, err := runCLI(t, "check", "--project-dir", dir)
	assert.ErrorContains(t, err, "settings file is invalid")
	assert.Contains(t, stdout, "/rules/0")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := runCLI(t, "init", "--project-dir", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, ".beacon-installer.yaml")
	assert.Contains(t, stdout, "Created "+path)
	assert.FileExists(t, path)

	// The generated file loads cleanly.
	stdout, _, err = runCLI(t, "check", "--project-dir", dir)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "using defaults")

	_, _, err = runCLI(t, "init", "--project-dir", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestConfigSetGet(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := runCLI(t, "config", "set", "vendor-dir", "lib", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Set vendor-dir = lib\n", stdout)

	stdout, _, err = runCLI(t, "config", "get", "vendor-dir", "--project-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "lib\n", stdout)

	stdout, _, err = runCLI(t, "config", "get", "rules", "--project-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "type: sdopx-plugin")

	_, _, err = runCLI(t, "config", "set", "mirror", "x", "--project-dir", dir)
	assert.ErrorContains(t, err, "unknown setting")

	_, _, err = runCLI(t, "config", "get", "mirror", "--project-dir", dir)
	assert.ErrorContains(t, err, "unknown config key")
}

func TestVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "beacon-installer version 1.2.3 (commit: abc123, built: 2026-01-02)\n", stdout)

	stdout, _, err = runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", stdout)

	stdout, _, err = runCLI(t, "version", "--json")
	require.NoError(t, err)
	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}, info)
}

func TestStyles_NoColor(t *testing.T) {
	var buf bytes.Buffer
	st := newStyles(&buf, true)
	assert.False(t, st.colored())
	assert.Equal(t, "acme/skeleton", st.name.Render("acme/skeleton"))
}
