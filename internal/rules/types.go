package rules

// MatchMode selects how a rule decides which packages it applies to.
type MatchMode string

const (
	// MatchMarkers applies the rule to every package when all of its marker
	// paths exist in the project root.
	MatchMarkers MatchMode = "markers"
	// MatchPackageType always applies the rule, but only to packages whose
	// declared type equals the rule type. With Paths set, each listed path is
	// copied from the package root to the same path in the project root;
	// otherwise the staged payload is used like for marker rules.
	MatchPackageType MatchMode = "package-type"
)

// Rule is a single project-type rule.
type Rule struct {
	Type       string    `yaml:"type" mapstructure:"type" json:"type"`
	Markers    []string  `yaml:"markers,omitempty" mapstructure:"markers" json:"markers,omitempty"`
	Match      MatchMode `yaml:"match,omitempty" mapstructure:"match" json:"match,omitempty"`
	Constraint string    `yaml:"constraint,omitempty" mapstructure:"constraint" json:"constraint,omitempty"`
	Paths      []string  `yaml:"paths,omitempty" mapstructure:"paths" json:"paths,omitempty"`
}

// Set is an ordered list of rules.
type Set []Rule

// Mode returns the rule's match mode, defaulting to MatchMarkers.
func (r Rule) Mode() MatchMode {
	if r.Match == "" {
		return MatchMarkers
	}
	return r.Match
}

// Defaults returns the built-in rule set, in evaluation order.
func Defaults() Set {
	return Set{
		{Type: "sdopx-plugin", Markers: []string{"sdopx/plugin"}},
		{Type: "beacon-widget", Markers: []string{"beacon/widget", "www", "app/tool/widget"}},
		{Type: "beacon-app", Markers: []string{"app", "www"}},
	}
}

// Types returns the rule types in order.
func (s Set) Types() []string {
	types := make([]string, len(s))
	for i, r := range s {
		types[i] = r.Type
	}
	return types
}
