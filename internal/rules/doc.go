// Package rules models the project-type rules that decide which scaffold
// payloads are merged into a project. A rule names a project type (the
// directory below a package's staging dir) and the marker paths whose
// presence in the project root makes the rule apply. Rules are an ordered
// list: evaluation order is declaration order.
package rules
