package analyze

import (
	"log/slog"
	"strings"
	"sync"
)

// Resolution is the outcome of resolving one raw mock token.
type Resolution struct {
	// Name is the fully qualified module name to exclude from interpretation.
	Name string

	// WasAliased reports whether the token resolved through the alias map.
	WasAliased bool
}

// Resolve maps a raw mock token to a fully qualified module name.
// Policy, in priority order: an alias-map hit wins; a token already
// containing a dot is assumed fully qualified; a token starting with a
// colon names an Erlang module and needs no qualification. Anything else is
// returned unchanged with a warning, since an unqualified bare name most
// likely means the alias scan missed a binding.
func Resolve(token string, aliases AliasMap) Resolution {
	if full, ok := aliases[token]; ok {
		return Resolution{Name: full, WasAliased: true}
	}
	if strings.Contains(token, ".") {
		return Resolution{Name: token}
	}
	if strings.HasPrefix(token, ":") {
		return Resolution{Name: token}
	}

	logger().Warn("mocked module did not resolve to a fully qualified name", "module", token)
	return Resolution{Name: token}
}

// ResolveAll resolves every token against the alias map, preserving order.
func ResolveAll(tokens []string, aliases AliasMap) []Resolution {
	out := make([]Resolution, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, Resolve(token, aliases))
	}
	return out
}

// ResolvedModules returns the scan's resolved module names in discovery order.
func (f FileScan) ResolvedModules() []string {
	names := make([]string, 0, len(f.Mocks))
	for _, res := range ResolveAll(f.Mocks, f.Aliases) {
		names = append(names, res.Name)
	}
	return names
}

var (
	loggerMu  sync.RWMutex
	pkgLogger *slog.Logger
)

// SetLogger overrides the package diagnostic logger. A nil logger restores
// the process default.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	pkgLogger = l
	loggerMu.Unlock()
}

func logger() *slog.Logger {
	loggerMu.RLock()
	l := pkgLogger
	loggerMu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}
