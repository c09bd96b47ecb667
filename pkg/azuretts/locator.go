package azuretts

import "strings"

// xmlEscaper matches the escaping applied when the SSML input was built, so
// that words containing characters like ' (reported unescaped by the service)
// can be matched against the escaped input. Without this, words such as
// "you're" would never be found.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// textLocator maps word text reported by the service back to offsets in the
// original SSML input. Boundary events carry only the word text and length,
// not its position, so the position has to be re-derived by searching the
// input while skipping occurrences that fall inside markup tags.
type textLocator struct {
	text string
}

// locate finds the next occurrence of word at or after *cursor that is not
// inside a <...> tag. On success it returns the byte offset of the match and
// advances *cursor past it. Offsets are byte offsets into the stored input.
func (l *textLocator) locate(word string, cursor *int) (int, bool) {
	word = xmlEscaper.Replace(word)
	start := *cursor
	if start > len(l.text) {
		return 0, false
	}

	for {
		rel := strings.Index(l.text[start:], word)
		if rel < 0 {
			return 0, false
		}
		pos := start + rel

		// Scan the text between the search start and the candidate for an
		// unmatched '<'. If every '<' has a matching '>', the candidate is
		// outside any tag and can be accepted.
		before := l.text[start:pos]
		inTag := false
		for {
			tagStart := strings.IndexByte(before, '<')
			if tagStart < 0 {
				break
			}
			tagEnd := strings.IndexByte(before[tagStart+1:], '>')
			if tagEnd < 0 {
				inTag = true
				break
			}
			before = before[tagStart+1+tagEnd+1:]
		}

		if !inTag {
			*cursor = pos + len(word)
			return pos, true
		}

		// The candidate is inside a tag. Resume searching at the '>' that
		// closes it; if the tag never closes there can be no further match.
		gt := strings.IndexByte(l.text[pos+len(word):], '>')
		if gt < 0 {
			return 0, false
		}
		start = pos + len(word) + gt
	}
}
