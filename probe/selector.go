package probe

import (
	"regexp"
	"strings"
)

var idShorthandRe = regexp.MustCompile(`^#[\w\-:]+$`)

// IsIDShorthand reports whether selector is "#" followed only by word
// characters, hyphens and colons. Such selectors are looked up by raw id
// rather than as CSS, so ids like "login:userId" work without escaping.
func IsIDShorthand(selector string) bool {
	return idShorthandRe.MatchString(selector)
}

// IDFromShorthand strips the leading # of an id shorthand selector. ok is
// false if selector is not an id shorthand.
func IDFromShorthand(selector string) (id string, ok bool) {
	if !IsIDShorthand(selector) {
		return "", false
	}
	return selector[1:], true
}

// QuoteAttr single quotes an attribute value for use inside a CSS attribute
// selector.
func QuoteAttr(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}
