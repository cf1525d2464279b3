package textutil

import "strings"

// titleSeparators become underscores; titleStripped characters are removed.
var (
	titleSeparators = strings.NewReplacer(" ", "_", "-", "_")
	titleStripped   = strings.NewReplacer(
		"'", "", "\"", "", ":", "", ";", "",
		".", "", ",", "", "/", "", "?", "",
		"\\", "", "(", "", ")", "", "{", "",
		"}", "", "[", "", "]", "",
	)
)

// FormatTitle converts a story title into the file stem used for every
// artifact of that story. Spaces and hyphens become underscores, then quotes,
// punctuation, slashes, and brackets are dropped.
//
//	"Noah's Ark - Part 1" -> "Noahs_Ark___Part_1"
func FormatTitle(title string) string {
	return titleStripped.Replace(titleSeparators.Replace(title))
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
