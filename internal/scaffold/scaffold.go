package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/beacon-labs/beacon-installer/internal/branding"
	"github.com/beacon-labs/beacon-installer/internal/rules"
)

//go:embed templates
var templateFS embed.FS

const settingsTemplate = "templates/settings/settings.yaml.tmpl"

// ErrExists is returned when the settings file is already present.
var ErrExists = errors.New("settings file already exists")

// Data holds the template variables.
type Data struct {
	DisplayName string
	StagingDir  string
	VendorDir   string
	Cleanup     bool
	Rules       rules.Set
}

// Result describes a generated file.
type Result struct {
	Path string
}

// NewData returns template data for the built-in rules.
func NewData(vendorDir string) *Data {
	if vendorDir == "" {
		vendorDir = "vendor"
	}
	return &Data{
		DisplayName: branding.DisplayName(),
		StagingDir:  branding.StagingDir(),
		VendorDir:   vendorDir,
		Cleanup:     true,
		Rules:       rules.Defaults(),
	}
}

// Render executes the settings template and validates the output.
func Render(data *Data) ([]byte, error) {
	if err := data.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	tmplBytes, err := fs.ReadFile(templateFS, settingsTemplate)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	tmpl, err := template.New(filepath.Base(settingsTemplate)).Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	result, err := rules.Validate(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("validating generated settings: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("generated settings are invalid: %s", result.Issues[0])
	}
	return buf.Bytes(), nil
}

// Generate writes the settings file to path. It never overwrites: an
// existing file yields ErrExists.
func Generate(data *Data, path string) (*Result, error) {
	content, err := Render(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return &Result{Path: path}, nil
}
