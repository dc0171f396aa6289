package poster

import (
	"strings"
	"unicode/utf8"
)

// MaxContentLength is the maximum number of characters in a single post.
const MaxContentLength = 280

// ValidateContent checks that text is non-blank and at most
// MaxContentLength characters long. Length is counted in runes.
func ValidateContent(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(text) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}
