// Package names parses free-text student names.
//
// Two notations are understood:
//
//	"Last, First M."   (comma form)
//	"First M. Last"    (natural form)
//
// A single-letter token, or one ending in ".", in the middle-initial position
// is read as a middle initial. That makes one-letter first or last names
// ambiguous; the heuristic is applied as-is.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name is a parsed student name.
type Name struct {
	FirstName     string
	MiddleInitial string
	LastName      string
}

// Parse splits s into first name, middle initial and last name.
// ok is false when s cannot be parsed into a non-empty first and last name.
func Parse(s string) (name Name, ok bool) {
	if strings.Contains(s, ",") {
		name = parseCommaForm(s)
	} else {
		var parsed bool
		name, parsed = parseNaturalForm(s)
		if !parsed {
			return Name{}, false
		}
	}

	name.FirstName = strings.TrimSpace(name.FirstName)
	name.LastName = strings.TrimSpace(name.LastName)
	if name.FirstName == "" || name.LastName == "" {
		return Name{}, false
	}
	return name, true
}

// parseCommaForm handles "Last, First [M.]". Text after a second comma is ignored.
func parseCommaForm(s string) Name {
	lastPart, restPart, _ := strings.Cut(s, ",")
	restPart, _, _ = strings.Cut(restPart, ",")

	name := Name{LastName: strings.TrimSpace(lastPart)}
	tokens := strings.Fields(restPart)
	if len(tokens) > 1 {
		candidate := tokens[len(tokens)-1]
		if isInitial(candidate) {
			name.MiddleInitial = initialOf(candidate)
			name.FirstName = strings.Join(tokens[:len(tokens)-1], " ")
			return name
		}
	}
	name.FirstName = strings.Join(tokens, " ")
	return name
}

// parseNaturalForm handles "First [Middle...] [M.] Last".
func parseNaturalForm(s string) (Name, bool) {
	tokens := strings.Fields(s)
	switch {
	case len(tokens) < 2:
		return Name{}, false
	case len(tokens) == 2:
		return Name{FirstName: tokens[0], LastName: tokens[1]}, true
	}

	last := tokens[len(tokens)-1]
	candidate := tokens[len(tokens)-2]
	if isInitial(candidate) {
		return Name{
			FirstName:     strings.Join(tokens[:len(tokens)-2], " "),
			MiddleInitial: initialOf(candidate),
			LastName:      last,
		}, true
	}
	return Name{
		FirstName: strings.Join(tokens[:len(tokens)-1], " "),
		LastName:  last,
	}, true
}

func isInitial(token string) bool {
	return utf8.RuneCountInString(token) == 1 || strings.HasSuffix(token, ".")
}

func initialOf(token string) string {
	r, _ := utf8.DecodeRuneInString(token)
	return string(unicode.ToUpper(r))
}
