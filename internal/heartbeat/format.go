// Package heartbeat validates and renders heartbeat payload templates.
//
// A template is a fmt format string with exactly one integer verb, which
// receives the heartbeat counter. Flags, width and precision are allowed
// ("message %d", "beat-%05d", "seq=%x"). Escaped percent signs are literal
// text. Any other verb, an argument index or a '*' width is rejected because
// the rendered payload would not carry the counter.
package heartbeat

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidFormat is returned for templates that cannot render a counter.
var ErrInvalidFormat = errors.New("heartbeat: invalid format")

// integerVerbs are the fmt verbs that print a uint64 as a number.
const integerVerbs = "bdoOxXv"

// ValidateFormat reports whether format holds exactly one integer verb and
// no other verbs.
func ValidateFormat(format string) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) {
			return fmt.Errorf("%w: trailing %%", ErrInvalidFormat)
		}
		if format[i] == '%' {
			continue
		}

		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}
		i = skipDigits(format, i)
		if i < len(format) && format[i] == '.' {
			i = skipDigits(format, i+1)
		}
		if i >= len(format) {
			return fmt.Errorf("%w: verb missing at end of %q", ErrInvalidFormat, format)
		}

		verb, size := utf8.DecodeRuneInString(format[i:])
		switch {
		case verb == '*' || verb == '[':
			return fmt.Errorf("%w: %q uses an argument index or '*' width", ErrInvalidFormat, format)
		case !strings.ContainsRune(integerVerbs, verb):
			return fmt.Errorf("%w: verb %%%c does not print the counter", ErrInvalidFormat, verb)
		}
		verbs++
		i += size - 1
	}

	if verbs != 1 {
		return fmt.Errorf("%w: want exactly one integer verb, found %d", ErrInvalidFormat, verbs)
	}
	return nil
}

// Render formats the heartbeat payload for seq. format must have passed
// ValidateFormat.
func Render(format string, seq uint64) []byte {
	return fmt.Appendf(nil, format, seq)
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
