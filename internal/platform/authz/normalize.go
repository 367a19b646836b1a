package authz

import "strings"

// normalizeName lower-cases a permission name and strips all spaces, the
// canonical comparison form for names that have drifted in casing and
// spacing across the system ("View Reports" vs "ViewReports").
func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// bareName strips the category prefix from a categorized permission name:
// "Reports:ViewReports" becomes "ViewReports". Names without a colon are
// returned unchanged.
func bareName(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// requestedForms holds the precomputed comparison forms of a requested
// permission name so each grant is matched without re-normalizing.
type requestedForms struct {
	exact    string
	name     string
	norm     string
	nameNorm string
}

func formsOf(requested string) requestedForms {
	name := bareName(requested)
	return requestedForms{
		exact:    requested,
		name:     name,
		norm:     normalizeName(requested),
		nameNorm: normalizeName(name),
	}
}

// matches reports whether a granted permission satisfies the requested name
// under any of the accepted forms: exact name, bare name, normalized name,
// or normalized "Category:Name".
func (f requestedForms) matches(g Permission) bool {
	if g.Name == f.exact || g.Name == f.name {
		return true
	}
	gNorm := normalizeName(g.Name)
	if gNorm == f.norm || gNorm == f.nameNorm {
		return true
	}
	return normalizeName(g.Categorized()) == f.norm
}

// anyMatches reports whether any grant in the set satisfies the requested
// forms.
func (f requestedForms) anyMatches(grants []Permission) bool {
	for _, g := range grants {
		if f.matches(g) {
			return true
		}
	}
	return false
}
