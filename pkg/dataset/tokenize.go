package dataset

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRE   = regexp.MustCompile(`([^A-Za-z0-9_])`)
	camelCaseRE  = regexp.MustCompile(`([a-z])([A-Z])`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// TokenizeCode splits a program into the tokens used for token counts and
// BLEU scoring: punctuation and operators become standalone tokens,
// camelCase identifiers are split, and quote characters are unified.
func TokenizeCode(code string) []string {
	code = nonAlnumRE.ReplaceAllString(code, " $1 ")
	code = camelCaseRE.ReplaceAllString(code, "$1 $2")
	code = whitespaceRE.ReplaceAllString(code, " ")
	code = strings.ReplaceAll(code, `"`, "`")
	code = strings.ReplaceAll(code, `'`, "`")

	fields := strings.Split(code, " ")
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}

	return tokens
}
