package ir

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Name is a roster entry: a base name plus an optional disambiguating suffix.
//
// The suffix is either numeric (Number > 0) or free text (Tag != ""), never
// both. A Name with neither is displayed as its base name alone. Names are
// comparable with ==, which is the identity used for duplicate detection.
type Name struct {
	Base   string `json:"base"`
	Number int    `json:"number,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// NewName creates an unsuffixed name.
func NewName(base string) Name {
	return Name{Base: base}
}

// Numbered creates a name with a numeric suffix.
func Numbered(base string, n int) Name {
	return Name{Base: base, Number: n}
}

// Tagged creates a name with a free-text suffix.
func Tagged(base, tag string) Name {
	return Name{Base: base, Tag: tag}
}

// HasSuffix reports whether the name carries any suffix.
func (n Name) HasSuffix() bool {
	return n.Number > 0 || n.Tag != ""
}

// Unsuffixed returns the name with its suffix removed.
func (n Name) Unsuffixed() Name {
	return Name{Base: n.Base}
}

// String returns the display form: "Kim", "Kim-2" or "Kim (captain)".
func (n Name) String() string {
	switch {
	case n.Number > 0:
		return fmt.Sprintf("%s-%d", n.Base, n.Number)
	case n.Tag != "":
		return fmt.Sprintf("%s (%s)", n.Base, n.Tag)
	default:
		return n.Base
	}
}

// CleanName trims surrounding whitespace and NFC-normalizes raw input so
// visually identical names compare equal.
func CleanName(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// ParseName parses a display form back into a Name.
//
// "Base-N" with N a positive integer yields a numeric suffix, "Base (text)"
// yields a free-text suffix, anything else is an unsuffixed base name.
// Input is cleaned first; the result has an empty Base if input was blank.
func ParseName(raw string) Name {
	s := CleanName(raw)
	if s == "" {
		return Name{}
	}

	if strings.HasSuffix(s, ")") {
		if open := strings.LastIndex(s, " ("); open > 0 {
			base := strings.TrimSpace(s[:open])
			tag := strings.TrimSpace(s[open+2 : len(s)-1])
			if base != "" && tag != "" {
				return Tagged(base, tag)
			}
		}
	}

	if dash := strings.LastIndex(s, "-"); dash > 0 && dash < len(s)-1 {
		digits := s[dash+1:]
		if n, err := strconv.Atoi(digits); err == nil && n > 0 && digits[0] != '0' && digits[0] != '+' {
			base := strings.TrimSpace(s[:dash])
			if base != "" {
				return Numbered(base, n)
			}
		}
	}

	return NewName(s)
}

// Names converts display strings into Names via ParseName.
func Names(raw ...string) []Name {
	out := make([]Name, 0, len(raw))
	for _, r := range raw {
		out = append(out, ParseName(r))
	}
	return out
}

// DisplayNames returns the display form of each name.
func DisplayNames(names []Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}
