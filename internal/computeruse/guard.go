package computeruse

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultDestructiveCombos are key combinations that close windows, quit
// applications or end the session. Each entry matches when all of its
// normalized tokens are present in a request.
var DefaultDestructiveCombos = [][]string{
	{"alt", "f4"},
	{"ctrl", "w"},
	{"ctrl", "q"},
	{"ctrl", "shift", "q"},
	{"super", "q"},
	{"ctrl", "alt", "backspace"},
}

// keyAliases collapses modifier spellings onto one canonical token.
var keyAliases = map[string]string{
	"cmd":     "super",
	"meta":    "super",
	"super":   "super",
	"control": "ctrl",
}

// NormalizeKey trims, case-folds and alias-collapses a key token.
func NormalizeKey(key string) string {
	// Casers hold state, so each call gets its own.
	key = cases.Fold().String(strings.TrimSpace(key))
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	set := make(keySet, len(keys))
	for _, key := range keys {
		set[NormalizeKey(key)] = struct{}{}
	}
	return set
}

func (s keySet) containsAll(other keySet) bool {
	for key := range other {
		if _, ok := s[key]; !ok {
			return false
		}
	}
	return true
}

func (s keySet) sorted() []string {
	tokens := make([]string, 0, len(s))
	for token := range s {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// ComboGuard classifies key requests against a table of destructive
// combinations.
type ComboGuard struct {
	rules []keySet
}

// NewComboGuard builds a guard from DefaultDestructiveCombos plus extra rules.
// Empty extra rules are ignored since they would match every request.
func NewComboGuard(extra ...[]string) *ComboGuard {
	g := &ComboGuard{}
	for _, combo := range DefaultDestructiveCombos {
		g.rules = append(g.rules, newKeySet(combo))
	}
	for _, combo := range extra {
		rule := newKeySet(combo)
		delete(rule, "")
		if len(rule) == 0 {
			continue
		}
		g.rules = append(g.rules, rule)
	}
	return g
}

// RequiresConfirmation reports whether keys is a superset of any rule.
// Order and duplicates in keys are irrelevant.
func (g *ComboGuard) RequiresConfirmation(keys []string) bool {
	_, ok := g.Match(keys)
	return ok
}

// Match returns the first rule matched by keys, sorted for display.
func (g *ComboGuard) Match(keys []string) ([]string, bool) {
	requested := newKeySet(keys)
	for _, rule := range g.rules {
		if requested.containsAll(rule) {
			return rule.sorted(), true
		}
	}
	return nil, false
}

// Rules returns the guard's table as sorted token lists.
func (g *ComboGuard) Rules() [][]string {
	out := make([][]string, 0, len(g.rules))
	for _, rule := range g.rules {
		out = append(out, rule.sorted())
	}
	return out
}

var defaultGuard = NewComboGuard()

// RequiresConfirmation classifies keys against DefaultDestructiveCombos.
func RequiresConfirmation(keys []string) bool {
	return defaultGuard.RequiresConfirmation(keys)
}
