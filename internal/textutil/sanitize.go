package textutil

import "strings"

// specialCharReplacer spells out punctuation so names such as "?" or "!!!"
// still produce a readable path segment.
var specialCharReplacer = strings.NewReplacer(
	"!", " exclamation mark ",
	"#", " number sign ",
	"$", " dollar sign ",
	"%", " percent sign ",
	"&", " ampersand ",
	"'", " apostrophe ",
	"(", " left parenthesis ",
	")", " right parenthesis ",
	"*", " asterisk ",
	"+", " plus sign ",
	",", " comma ",
	"-", " hyphen ",
	".", " period ",
	"/", " forward slash ",
	":", " colon ",
	";", " semicolon ",
	"<", " less than sign ",
	"=", " equals sign ",
	">", " greater than sign ",
	"?", " question mark ",
	"@", " at sign ",
	"[", " left square bracket ",
	"\\", " backslash ",
	"]", " right square bracket ",
	"^", " caret ",
	"_", " underscore ",
	"`", " grave accent ",
	"{", " left curly bracket ",
	"|", " vertical bar ",
	"}", " right curly bracket ",
	"~", " tilde ",
)

// SpellSpecialChars replaces each ASCII special character with its English
// name, e.g. "?" becomes "question mark".
func SpellSpecialChars(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(specialCharReplacer.Replace(value))
}
