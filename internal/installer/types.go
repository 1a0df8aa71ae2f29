package installer

import (
	"errors"
	"fmt"
)

// DefaultStagingDir is the directory below a package's install path that holds
// its scaffold payloads.
const DefaultStagingDir = ".install"

// Package describes an installed package. Name is unique per run.
type Package struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version"`
	InstallPath string `json:"install_path,omitempty"`
}

// PackageLister enumerates the installed packages.
type PackageLister interface {
	ListPackages() ([]Package, error)
}

// PathResolver maps a package to the absolute directory it is installed in.
type PathResolver interface {
	InstallPath(pkg Package) (string, error)
}

// ConfigSource reports whether the installer has been switched off.
type ConfigSource interface {
	Disabled() (bool, error)
}

// ConfigFunc adapts a function to ConfigSource.
type ConfigFunc func() (bool, error)

// Disabled calls f.
func (f ConfigFunc) Disabled() (bool, error) { return f() }

// AnyDisabled returns a ConfigSource that is disabled when any of sources is.
// Nil sources are ignored.
func AnyDisabled(sources ...ConfigSource) ConfigSource {
	return ConfigFunc(func() (bool, error) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			disabled, err := s.Disabled()
			if err != nil {
				return false, err
			}
			if disabled {
				return true, nil
			}
		}
		return false, nil
	})
}

// SkipReason explains why a package was not merged for a rule.
type SkipReason string

const (
	SkipNotAccepted SkipReason = "not accepted by rule"
	SkipNoPayload   SkipReason = "no payload for project type"
)

// RuleResult records the eligibility of one rule.
type RuleResult struct {
	Rule     string
	Eligible bool
	Missing  []string // marker paths not found in the project root
	Err      error
}

// Outcome records what happened to one package under one rule.
type Outcome struct {
	Rule    string
	Package string
	Source  string // payload directory, or the package root for path-list rules
	Changed bool   // at least one file was copied
	Files   []string
	Dirs    []string
	Skipped SkipReason
	Err     error
}

// Cleanup records the removal of one staging directory.
type Cleanup struct {
	Package string
	Path    string
	// Kept is set when the directory was left in place because a merge from
	// the package failed, so a later run can finish the copy.
	Kept bool
	Err  error
}

// Report is the record of a single run.
type Report struct {
	Disabled bool
	DryRun   bool
	Rules    []RuleResult
	Outcomes []Outcome
	Cleanups []Cleanup
}

// Err joins every rule and package failure of the run. Cleanup failures are
// not included; see CleanupErr.
func (r *Report) Err() error {
	var errs []error
	for _, rr := range r.Rules {
		if rr.Err != nil {
			errs = append(errs, rr.Err)
		}
	}
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// CleanupErr joins every cleanup failure of the run.
func (r *Report) CleanupErr() error {
	var errs []error
	for _, c := range r.Cleanups {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	return errors.Join(errs...)
}

// Changed returns the names of packages that copied at least one file, in
// first-change order.
func (r *Report) Changed() []string {
	seen := make(map[string]bool)
	var names []string
	for _, o := range r.Outcomes {
		if o.Changed && !seen[o.Package] {
			seen[o.Package] = true
			names = append(names, o.Package)
		}
	}
	return names
}

// Files returns the number of files copied during the run.
func (r *Report) Files() int {
	n := 0
	for _, o := range r.Outcomes {
		n += len(o.Files)
	}
	return n
}

// PackageError is a failure processing one package under one rule.
type PackageError struct {
	Rule    string
	Package string
	Op      string
	Err     error
}

func (e *PackageError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Rule, e.Op, e.Package, e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }
