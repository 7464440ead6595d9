package summarizer

import (
	"regexp"
	"strings"
)

// Control tokens of the T5 vocabulary: padding, end of sequence, unknown and
// the sentinel tokens used during span corruption pretraining.
var specialTokenRe = regexp.MustCompile(`<pad>|</s>|<unk>|<extra_id_\d+>`)

// StripSpecialTokens removes model control tokens from decoded output and
// collapses the whitespace they leave behind.
func StripSpecialTokens(text string) string {
	if !specialTokenRe.MatchString(text) {
		return strings.TrimSpace(text)
	}

	return strings.Join(strings.Fields(specialTokenRe.ReplaceAllString(text, " ")), " ")
}
