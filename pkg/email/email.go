package email

import (
	"strings"
	"unicode"
)

// DisplayName derives a friendly name from the local part of an address,
// e.g. "ash.ketchum@kanto.io" becomes "Ash Ketchum". Empty input yields "Trainer".
func DisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Trainer"
	}

	first := capitalize(parts[0])
	if len(parts) == 1 {
		return first
	}
	return first + " " + capitalize(parts[len(parts)-1])
}

// Mask hides most of the local part so addresses can be logged.
func Mask(address string) string {
	at := strings.IndexByte(address, '@')
	if at <= 0 {
		return "***"
	}
	runes := []rune(address[:at])
	return string(runes[0]) + "***" + address[at:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
