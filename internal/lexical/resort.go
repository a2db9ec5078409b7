package lexical

import (
	"regexp"
	"strings"
)

// ResortAlias binds a short code to the free-text spellings that mean it.
type ResortAlias struct {
	Code    string
	Aliases []string
}

// ResortTable is ordered; the first matching entry wins in every stage.
type ResortTable []ResortAlias

var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+`)

// NewResortTable normalises codes to upper case and aliases to lower case.
func NewResortTable(entries []ResortAlias) ResortTable {
	out := make(ResortTable, 0, len(entries))
	for _, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if code == "" {
			continue
		}
		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				aliases = append(aliases, a)
			}
		}
		out = append(out, ResortAlias{Code: code, Aliases: aliases})
	}
	return out
}

// Exact matches the text against the known codes, ignoring case.
func (t ResortTable) Exact(text string) (string, bool) {
	s := strings.TrimSpace(text)
	for _, e := range t {
		if strings.EqualFold(s, e.Code) {
			return e.Code, true
		}
	}
	return "", false
}

// ByAlias matches when any alias occurs inside the lower-cased text.
func (t ResortTable) ByAlias(text string) (string, bool) {
	s := strings.ToLower(text)
	for _, e := range t {
		for _, a := range e.Aliases {
			if strings.Contains(s, a) {
				return e.Code, true
			}
		}
	}
	return "", false
}

// ByToken matches when an alphanumeric token of the text is itself a code.
func (t ResortTable) ByToken(text string) (string, bool) {
	for _, tok := range tokenRe.FindAllString(text, -1) {
		if code, ok := t.Exact(tok); ok {
			return code, true
		}
	}
	return "", false
}

// Resolve runs exact, alias and token stages in that order.
func (t ResortTable) Resolve(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if code, ok := t.Exact(text); ok {
		return code, true
	}
	if code, ok := t.ByAlias(text); ok {
		return code, true
	}
	return t.ByToken(text)
}

// ShortCode is Resolve with a final fallback to the upper-cased text, so an
// unknown resort still yields a usable availability key. Blank text yields "".
func (t ResortTable) ShortCode(text string) string {
	if code, ok := t.Resolve(text); ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(text))
}
