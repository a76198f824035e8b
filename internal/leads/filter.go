package leads

import (
	"sort"
	"strings"

	"github.com/nconklindev/leadmap/internal/types"
)

const (
	AllTeams    = "All Teams"
	AllStatuses = "All Statuses"
)

// Filter narrows a preview. Search is a case-insensitive substring over every
// lead field; Team and Status must match exactly unless empty or an All* value.
type Filter struct {
	Search string
	Team   string
	Status string
}

func (f Filter) Match(l types.Lead) bool {
	if f.Team != "" && f.Team != AllTeams && l.Team != f.Team {
		return false
	}
	if f.Status != "" && f.Status != AllStatuses && l.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	text := strings.ToLower(strings.Join([]string{l.Name, l.Email, l.Phone1, l.Phone2, l.Team, l.Status}, " "))
	return strings.Contains(text, strings.ToLower(f.Search))
}

// Apply returns the leads matching f, preserving order.
func Apply(all []types.Lead, f Filter) []types.Lead {
	out := make([]types.Lead, 0, len(all))
	for _, l := range all {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Teams returns AllTeams followed by the distinct teams in all, sorted.
func Teams(all []types.Lead) []string {
	return withAll(AllTeams, all, func(l types.Lead) string { return l.Team })
}

// Statuses returns AllStatuses followed by the distinct statuses in all, sorted.
func Statuses(all []types.Lead) []string {
	return withAll(AllStatuses, all, func(l types.Lead) string { return l.Status })
}

func withAll(all string, leads []types.Lead, key func(types.Lead) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, l := range leads {
		v := key(l)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{all}, values...)
}

// Next cycles to the option after current, wrapping around.
func Next(options []string, current string) string {
	if len(options) == 0 {
		return current
	}
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
