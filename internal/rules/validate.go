package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Validate checks that every rule is usable: a type that is a single path
// segment, relative marker paths that stay inside the project, a known match
// mode and a parseable version constraint. Types must be unique.
func (s Set) Validate() error {
	var errs []error
	seen := make(map[string]bool)

	for i, r := range s {
		prefix := fmt.Sprintf("rule %d", i)
		if r.Type != "" {
			prefix = fmt.Sprintf("rule %d (%s)", i, r.Type)
		}

		if err := validateType(r.Type); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		} else if seen[r.Type] {
			errs = append(errs, fmt.Errorf("%s: duplicate type", prefix))
		}
		seen[r.Type] = true

		switch r.Mode() {
		case MatchMarkers:
			if len(r.Markers) == 0 {
				errs = append(errs, fmt.Errorf("%s: at least one marker path is required", prefix))
			}
			if len(r.Paths) > 0 {
				errs = append(errs, fmt.Errorf("%s: paths require match %q", prefix, MatchPackageType))
			}
		case MatchPackageType:
		default:
			errs = append(errs, fmt.Errorf("%s: unknown match mode %q", prefix, r.Match))
		}

		for _, m := range r.Markers {
			if err := validateMarker(m); err != nil {
				errs = append(errs, fmt.Errorf("%s: marker %q: %w", prefix, m, err))
			}
		}

		for _, p := range r.Paths {
			if err := validateMarker(p); err != nil {
				errs = append(errs, fmt.Errorf("%s: path %q: %w", prefix, p, err))
			} else if filepath.Clean(filepath.FromSlash(p)) == "." {
				errs = append(errs, fmt.Errorf("%s: path %q: must name a subdirectory", prefix, p))
			}
		}

		if r.Constraint != "" {
			if _, err := semver.NewConstraint(r.Constraint); err != nil {
				errs = append(errs, fmt.Errorf("%s: constraint %q: %w", prefix, r.Constraint, err))
			}
		}
	}

	return errors.Join(errs...)
}

func validateType(t string) error {
	switch {
	case t == "":
		return errors.New("type is required")
	case t == "." || t == "..":
		return fmt.Errorf("type %q is not a directory name", t)
	case strings.ContainsAny(t, `/\`):
		return fmt.Errorf("type %q must not contain path separators", t)
	}
	return nil
}

func validateMarker(m string) error {
	if m == "" {
		return errors.New("empty path")
	}
	if filepath.IsAbs(m) || strings.HasPrefix(m, "/") {
		return errors.New("must be relative to the project root")
	}
	clean := filepath.Clean(filepath.FromSlash(m))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.New("must not leave the project root")
	}
	return nil
}
