package textnorm

import (
	"regexp"
	"strings"
)

var commonNameRe = regexp.MustCompile(`"Common Name: ([^"]+)"`)

const currentNameHeader = "Current Name:"

// CommonName returns the value of the first `"Common Name: X"`
// sentinel in the notes field, or an empty string.
func CommonName(notes string) string {
	notes = unescapeNewlines(notes)
	m := commonNameRe.FindStringSubmatch(notes)
	if m == nil {
		return ""
	}
	return CollapseSpaces(m[1])
}

// CurrentName returns the first non-empty line after the
// `Current Name:` header of the notes field, or an empty string.
// Text on the header line itself counts as the first line.
func CurrentName(notes string) string {
	notes = unescapeNewlines(notes)
	idx := strings.Index(notes, currentNameHeader)
	if idx == -1 {
		return ""
	}
	rest := notes[idx+len(currentNameHeader):]
	for line := range strings.SplitSeq(rest, "\n") {
		line = tagRe.ReplaceAllString(line, " ")
		line = CollapseSpaces(StripItalics(line))
		if line != "" {
			return line
		}
	}
	return ""
}
