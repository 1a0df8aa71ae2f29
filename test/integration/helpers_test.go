//go:build integration

package integration_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to an isolated Composer project.
type testEnv struct {
	ProjectDir string // project root, also the merge destination
	VendorDir  string // <project>/vendor
}

// installedPackage mirrors an installed.json entry.
type installedPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Type        string `json:"type"`
	InstallPath string `json:"install-path"`
}

// setupTestEnv creates a project directory with an empty vendor tree and
// clears installer environment overrides for the duration of the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	for _, key := range []string{
		"BEACON_INSTALLER_VENDOR_DIR",
		"BEACON_INSTALLER_CLEANUP",
		"BEACON_INSTALLER_DISABLE",
		"COMPOSER_VENDOR_DIR",
	} {
		t.Setenv(key, "")
	}

	project := t.TempDir()
	env := &testEnv{
		ProjectDir: project,
		VendorDir:  filepath.Join(project, "vendor"),
	}
	writeFile(t, filepath.Join(project, "composer.json"), `{"name": "acme/site", "type": "project"}`)
	writeInstalled(t, env)
	return env
}

// writeInstalled writes vendor/composer/installed.json in the Composer 2
// layout.
func writeInstalled(t *testing.T, env *testEnv, pkgs ...installedPackage) {
	t.Helper()
	if pkgs == nil {
		pkgs = []installedPackage{}
	}
	data, err := json.MarshalIndent(map[string]any{
		"packages":          pkgs,
		"dev":               true,
		"dev-package-names": []string{},
	}, "", "    ")
	if err != nil {
		t.Fatalf("encoding installed.json: %v", err)
	}
	writeFile(t, filepath.Join(env.VendorDir, "composer", "installed.json"), string(data))
}

// addPackage stages files (relative path -> content) inside a package
// installed at vendor/<name> and returns its index entry.
func addPackage(t *testing.T, env *testEnv, name, pkgType string, files map[string]string) installedPackage {
	t.Helper()
	root := filepath.Join(env.VendorDir, filepath.FromSlash(name))
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("creating package dir %s: %v", root, err)
	}
	for rel, content := range files {
		writeFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
	return installedPackage{
		Name:        name,
		Version:     "1.0.0",
		Type:        pkgType,
		InstallPath: "../" + name,
	}
}

// mkdirs creates marker directories in the project root.
func mkdirs(t *testing.T, env *testEnv, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		path := filepath.Join(env.ProjectDir, filepath.FromSlash(d))
		if err := os.MkdirAll(path, 0755); err != nil {
			t.Fatalf("creating dir %s: %v", path, err)
		}
	}
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContent fails if the file doesn't exist or differs from want.
func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if string(data) != want {
		t.Errorf("file %s = %q, want %q", path, string(data), want)
	}
}

// assertContains fails if s does not contain substr.
func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("output does not contain %q.\nOutput:\n%s", substr, s)
	}
}
