// Package analyze discovers mocked modules in ExUnit test files.
//
// Discovery is deliberately lexical: single-pass regular-expression scans
// over the raw source, not a parser. The output is best-effort and feeds the
// debugger's module-exclusion list, where a false negative means a mocked
// module gets interpreted (and the mock silently breaks) while a false
// positive merely skips interpretation of one extra module.
package analyze

import "regexp"

// AliasMap maps a short local name to its fully qualified module name.
// The last binding scanned for a given short name wins.
type AliasMap map[string]string

var (
	// alias Foo.Bar.Baz
	aliasSimpleRe = regexp.MustCompile(`(?m)^\s*alias\s+([A-Z]\w*(?:\.[A-Z]\w*)*)\s*$`)

	// alias Foo.Bar.{Baz, Qux}
	aliasMultiRe = regexp.MustCompile(`(?m)^\s*alias\s+((?:[A-Z]\w*\.)+)\{([^}]*)\}`)

	// alias Foo.Bar.Baz, as: Custom
	aliasAsRe = regexp.MustCompile(`(?m)^\s*alias\s+([A-Z]\w*(?:\.[A-Z]\w*)*)\s*,\s*as:\s*([A-Z]\w*)`)

	aliasInnerRe = regexp.MustCompile(`[A-Z]\w*`)
)

// ExtractAliases scans Elixir source text and returns its alias bindings.
// Three forms are recognized independently over the whole text: a plain
// alias (binds the last segment), the brace form (binds each inner name to
// base.name), and the as: form (binds the custom name). Multi-line aliases
// are not followed. The scan never fails; text without aliases yields an
// empty map.
func ExtractAliases(text string) AliasMap {
	aliases := make(AliasMap)

	for _, m := range aliasSimpleRe.FindAllStringSubmatch(text, -1) {
		full := m[1]
		aliases[lastSegment(full)] = full
	}

	for _, m := range aliasMultiRe.FindAllStringSubmatch(text, -1) {
		base := m[1] // keeps the trailing dot
		for _, inner := range aliasInnerRe.FindAllString(m[2], -1) {
			aliases[inner] = base + inner
		}
	}

	for _, m := range aliasAsRe.FindAllStringSubmatch(text, -1) {
		aliases[m[2]] = m[1]
	}

	return aliases
}

// lastSegment returns the text after the final dot.
func lastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
