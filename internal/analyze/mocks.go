package analyze

import (
	"os"
	"regexp"
)

var (
	// setup_with_mocks([{Mod, [], []}, ...]) and with_mocks([...]) take a
	// list of tuples whose first element names the mocked module. The tuple
	// match anchors on a list-element position so tuples inside stub bodies
	// ({:ok, ...} and friends) are not mistaken for mock entries.
	mockListCallRe = regexp.MustCompile(`(?s)(?:setup_with_mocks|with_mocks)\s*\(\s*\[(.*?)\]\s*\)`)
	mockTupleRe    = regexp.MustCompile(`(?m)(?:^|[\[,])\s*\{\s*(:?\w+(?:\.\w+)*)\s*[,}]`)

	// with_mock Mod, [...] do ... end
	mockBlockRe = regexp.MustCompile(`with_mock\s+(:?\w+(?:\.\w+)*)`)

	// :meck.new(Mod, ...) / :meck.expect(Mod, ...)
	meckNewRe    = regexp.MustCompile(`:meck\.new\(\s*(:?\w+(?:\.\w+)*)`)
	meckExpectRe = regexp.MustCompile(`:meck\.expect\(\s*(:?\w+(?:\.\w+)*)`)
)

// FileScan is the result of scanning one test file for mocked modules.
type FileScan struct {
	// Mocks holds the raw module tokens in discovery order, deduplicated.
	Mocks []string

	// Aliases is the file's alias map, returned for reuse by resolution.
	Aliases AliasMap
}

// ExtractMockRefs scans source text for the known mocking idioms and returns
// the raw module tokens in discovery order, deduplicated. Recognized idioms:
// setup_with_mocks/with_mocks tuple lists, the with_mock block form, and the
// :meck.new/:meck.expect native calls.
func ExtractMockRefs(text string) []string {
	var tokens []string
	seen := make(map[string]bool)

	add := func(token string) {
		if token != "" && !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	for _, list := range mockListCallRe.FindAllStringSubmatch(text, -1) {
		for _, tuple := range mockTupleRe.FindAllStringSubmatch(list[1], -1) {
			add(tuple[1])
		}
	}

	for _, m := range mockBlockRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	for _, m := range meckNewRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range meckExpectRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return tokens
}

// ScanFile reads a test file and extracts its mock references and aliases.
// Mock detection is best-effort and must never block a run: any read error
// is logged at debug level and yields an empty scan.
func ScanFile(path string) FileScan {
	data, err := os.ReadFile(path)
	if err != nil {
		logger().Debug("mock scan skipped, file unreadable", "path", path, "error", err)
		return FileScan{Aliases: make(AliasMap)}
	}

	text := string(data)
	return FileScan{
		Mocks:   ExtractMockRefs(text),
		Aliases: ExtractAliases(text),
	}
}
