package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

// Eligible reports whether the rule applies to the project rooted at root,
// along with the marker paths that are missing there. Package-type rules
// always apply and never check markers.
func (r Rule) Eligible(fsys afero.Fs, root string) (bool, []string, error) {
	if r.Mode() == MatchPackageType {
		return true, nil, nil
	}
	missing, err := r.MissingMarkers(fsys, root)
	if err != nil {
		return false, nil, err
	}
	return len(missing) == 0, missing, nil
}

// MissingMarkers returns the marker paths that do not exist under root, in
// declaration order.
func (r Rule) MissingMarkers(fsys afero.Fs, root string) ([]string, error) {
	var missing []string
	for _, m := range r.Markers {
		ok, err := afero.Exists(fsys, filepath.Join(root, filepath.FromSlash(m)))
		if err != nil {
			return nil, fmt.Errorf("checking marker %s: %w", m, err)
		}
		if !ok {
			missing = append(missing, m)
		}
	}
	return missing, nil
}

// Accepts reports whether a package with the given declared type and version
// falls under the rule. Marker rules accept any type; package-type rules
// accept only their own type. When the rule carries a version constraint,
// the version must satisfy it; versions that are not semver (branch aliases
// like "dev-main") never do.
func (r Rule) Accepts(pkgType, version string) (bool, error) {
	if r.Mode() == MatchPackageType && pkgType != r.Type {
		return false, nil
	}
	if r.Constraint == "" {
		return true, nil
	}

	c, err := semver.NewConstraint(r.Constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", r.Constraint, err)
	}
	v, err := parseSemver(version)
	if err != nil {
		return false, nil
	}
	return c.Check(v), nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
