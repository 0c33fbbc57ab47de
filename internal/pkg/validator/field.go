package validator

import (
	"strings"
	"unicode"
)

// fieldKey turns a Go field name into the snake_case key used in responses.
// An initialism stays one word: UserID → user_id, OTPCode → otp_code.
func fieldKey(name string) string {
	runes := []rune(name)

	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && startsWord(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// startsWord reports whether the upper-case rune at i opens a new word.
func startsWord(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	// inside an initialism, only its last letter before a lower-case run
	// starts the next word (HTTPServer → http_server)
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
