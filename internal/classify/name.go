package classify

import (
	"strings"
	"unicode"
)

// NameFromAddress derives a display name from the local part of an email
// address: "jane.doe_smith@x.org" becomes "Jane Doe Smith".
func NameFromAddress(addr string) string {
	local, _, _ := strings.Cut(addr, "@")
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)
	return titleCase(local)
}

// titleCase upper-cases the first letter of every letter run and lower-cases
// the rest.
func titleCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}
