package graph

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var rules = inflect.NewDefaultRuleset()

// Plural returns the English plural of a singular model name. Only the
// last word of a camel-cased name is inflected: "Person" becomes
// "People", "BlogPost" becomes "BlogPosts".
func Plural(name string) string {
	if name == "" {
		return ""
	}
	i := lastWord(name)
	prefix, word := name[:i], name[i:]
	plural := rules.Pluralize(strings.ToLower(word))
	if r, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(r) {
		plural = cases.Title(language.English).String(plural)
	}
	return prefix + plural
}

// Camel returns name with its first letter lowered: "BlogPost" becomes
// "blogPost".
func Camel(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// lastWord returns the byte offset of the last camel-case word in name.
func lastWord(name string) int {
	last := 0
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			last = i
		}
	}
	return last
}
