package i18n

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// dollarMarker stands in for "$$" while the dollar passes run. It contains
// neither '$' nor braces so no later pass can match it.
const dollarMarker = "transx-dollar"

var (
	dollarBrace = regexp.MustCompile(`\$\{([^{}$]+)\}`)
	identifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Interpolate substitutes params into text. Supported placeholders:
//
//	{name} {0}   brace form; {{ and }} are literal braces
//	${name}      rewritten to {name} when it can be resolved
//	$name        rewritten to {name} only when params has the key
//	$$           kept as a literal "$$"
//
// A single parameter also satisfies {0}. Placeholders without a matching
// parameter are left intact, or reported as *MissingParamError when
// strict is set. With no params and strict unset the text is returned
// untouched; strict still reports every placeholder.
func Interpolate(text string, params map[string]any, strict bool) (string, error) {
	if len(params) == 0 && !strict {
		return text, nil
	}

	out := strings.ReplaceAll(text, "$$", dollarMarker)
	out = dollarBrace.ReplaceAllStringFunc(out, func(m string) string {
		name := m[2 : len(m)-1]
		if _, ok := lookupParam(params, name); ok || strict {
			return m[1:]
		}
		return m
	})
	out = rewriteBareDollar(out, params)

	out, err := substituteBraces(out, params, strict)
	if err != nil {
		return text, err
	}
	return strings.ReplaceAll(out, dollarMarker, "$$"), nil
}

// rewriteBareDollar turns $key into {key} for identifier-like keys present
// in params, longest key first so $names is not read as $name + "s".
func rewriteBareDollar(text string, params map[string]any) string {
	if !strings.Contains(text, "$") {
		return text
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		if identifier.MatchString(k) {
			keys = append(keys, regexp.QuoteMeta(k))
		}
	}
	if len(keys) == 0 {
		return text
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})
	re := regexp.MustCompile(`\$(` + strings.Join(keys, "|") + `)\b`)
	return re.ReplaceAllString(text, "{$1}")
}

func substituteBraces(text string, params map[string]any, strict bool) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '{' && strings.HasPrefix(text[i:], "{{"):
			b.WriteByte('{')
			i += 2
			continue
		case c == '}' && strings.HasPrefix(text[i:], "}}"):
			b.WriteByte('}')
			i += 2
			continue
		case c != '{':
			b.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexAny(text[i+1:], "{}")
		if end < 0 || text[i+1+end] != '}' || end == 0 {
			b.WriteByte(c)
			i++
			continue
		}
		name := text[i+1 : i+1+end]
		if v, ok := lookupParam(params, name); ok {
			b.WriteString(fmt.Sprint(v))
		} else if strict {
			return "", &MissingParamError{Key: name}
		} else {
			b.WriteString(text[i : i+2+end])
		}
		i += end + 2
	}
	return b.String(), nil
}

func lookupParam(params map[string]any, name string) (any, bool) {
	if v, ok := params[name]; ok {
		return v, true
	}
	if name == "0" && len(params) == 1 {
		for _, v := range params {
			return v, true
		}
	}
	return nil, false
}
