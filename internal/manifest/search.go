package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sahilm/fuzzy"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// Match is a search hit.
type Match struct {
	Name    string
	Package Package
}

// globMeta holds the characters that switch a search term to glob matching.
const globMeta = "*?[{"

// Search returns packages available for key whose name, description or tags
// contain term (case-insensitive). A term with glob metacharacters is
// matched as a glob against package names instead. Results are sorted by name.
func (m Manifest) Search(term string, key platform.Key) ([]Match, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	var match func(name string, pkg Package) bool
	if strings.ContainsAny(term, globMeta) {
		g, err := glob.Compile(term)
		if err != nil {
			return nil, fmt.Errorf("invalid search pattern %q: %w", term, err)
		}
		match = func(name string, _ Package) bool {
			return g.Match(strings.ToLower(name))
		}
	} else {
		match = func(name string, pkg Package) bool {
			if strings.Contains(strings.ToLower(name), term) ||
				strings.Contains(strings.ToLower(pkg.Description), term) {
				return true
			}
			for _, tag := range pkg.Tags {
				if strings.Contains(strings.ToLower(tag), term) {
					return true
				}
			}
			return false
		}
	}

	var matches []Match
	for _, name := range m.Names() {
		pkg := m[name]
		if !pkg.Supports(key) {
			continue
		}
		if match(name, pkg) {
			matches = append(matches, Match{Name: name, Package: pkg})
		}
	}

	return matches, nil
}

// ForPlatform returns the subset of m that has a variant for key.
func (m Manifest) ForPlatform(key platform.Key) Manifest {
	filtered := make(Manifest)
	for name, pkg := range m {
		if pkg.Supports(key) {
			filtered[name] = pkg
		}
	}
	return filtered
}

// Suggest returns up to limit package names that fuzzily match name, best first.
func (m Manifest) Suggest(name string, limit int) []string {
	if name == "" || limit <= 0 {
		return nil
	}

	names := m.Names()
	results := fuzzy.Find(name, names)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	suggestions := make([]string, 0, limit)
	for _, r := range results {
		if len(suggestions) == limit {
			break
		}
		suggestions = append(suggestions, r.Str)
	}
	return suggestions
}
