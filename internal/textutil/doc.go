// Package textutil turns artist names and release titles into stable,
// filesystem-safe path segments.
//
// The primary use cases are:
//   - Formatting a name into a lowercase, hyphenated, Latin-only segment
//   - Spelling out punctuation for names made only of special characters
//   - Folding names for loose equality checks (case and accent insensitive)
//
// Formatting strips everything that is not a letter, digit, underscore, or
// whitespace, collapses whitespace runs into single hyphens, lowercases, and
// transliterates non-Latin scripts to their closest ASCII spelling. An empty
// result means the name could not be formatted and callers should fall back
// to an alternative spelling.
package textutil
