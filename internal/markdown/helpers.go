package markdown

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is Telegram's limit for a single text message.
const MaxMessageLength = 4096

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `\_*[]()~>#+-=|{}.!` + "`"

const notesHeading = "*Detailed Notes:*"

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Notes renders a summary under the bold notes heading.
func Notes(summary string) string {
	return notesHeading + "\n\n" + EscapeV2(strings.TrimSpace(summary))
}

// Split cuts text into chunks of at most limit bytes. It prefers line and
// word boundaries and never separates an escape backslash from the
// character it escapes.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string

	for len(text) > limit {
		cut := splitPoint(text, limit)

		if chunk := strings.TrimRight(text[:cut], " \n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimLeft(text[cut:], " \n")
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}

func splitPoint(text string, limit int) int {
	// The byte at limit may itself be a separator.
	window := text[:limit+1]

	if i := strings.LastIndexByte(window, '\n'); i >= limit/2 {
		return i + 1
	}

	if i := strings.LastIndexByte(window, ' '); i >= limit/2 {
		return i + 1
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	backslashes := 0
	for i := cut - 1; i >= 0 && text[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		cut--
	}

	if cut <= 0 {
		_, size := utf8.DecodeRuneInString(text)
		cut = size
	}

	return cut
}
