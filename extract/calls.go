package extract

import "strings"

// definitionWords precede a keyword name when the source defines the
// function rather than calling it.
var definitionWords = map[string]bool{
	"def":      true,
	"function": true,
	"func":     true,
	"sub":      true,
}

// scanCalls walks toks and reports every call to a keyword. comments
// holds the tagged comment block that ends on the call's line or the
// line before it.
func scanCalls(toks []token, keywords map[string][]Keyword, tags []string, emit func(kws []Keyword, c *call, comments []string)) {
	var pending []string
	pendingLine := -2

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokComment:
			switch {
			case hasTag(t.text, tags):
				if t.line != pendingLine+1 {
					pending = nil
				}
				pending = append(pending, t.text)
				pendingLine = t.line
			case pending != nil && t.line == pendingLine+1:
				pending = append(pending, t.text)
				pendingLine = t.line
			}
		case tokIdent:
			kws, ok := keywords[t.text]
			if !ok || i+1 >= len(toks) || toks[i+1].kind != tokPunct || toks[i+1].text != "(" {
				continue
			}
			if i > 0 && toks[i-1].kind == tokIdent && definitionWords[toks[i-1].text] {
				continue
			}
			c := parseCall(toks, i+1)
			c.line = t.line

			var comments []string
			if pending != nil && t.line-pendingLine <= 1 {
				comments = pending
				pending = nil
			}
			emit(kws, c, comments)
		}
	}
}

func hasTag(text string, tags []string) bool {
	for _, tag := range tags {
		if strings.HasPrefix(text, tag) {
			return true
		}
	}
	return false
}

// parseCall splits the argument list opening at toks[open] into
// top-level arguments and resolves the literal ones.
func parseCall(toks []token, open int) *call {
	var args [][]token
	var cur []token
	depth := 0

loop:
	for j := open + 1; j < len(toks); j++ {
		t := toks[j]
		if t.kind == tokComment {
			continue
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					break loop
				}
				depth--
			case ",":
				if depth == 0 {
					args = append(args, cur)
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		args = append(args, cur)
	}

	c := &call{}
	for _, arg := range args {
		if len(arg) >= 2 && arg[0].kind == tokIdent && arg[1].kind == tokPunct && arg[1].text == "=" {
			if arg[0].text == "context" {
				if v := literal(arg[2:]); v != nil {
					c.context = v
				} else {
					c.computedContext = true
				}
			}
			continue
		}
		c.positional = append(c.positional, literal(arg))
	}
	return c
}

// literal returns the value of an argument made only of string literals,
// optionally joined with '+'. Anything else is computed and yields nil.
func literal(arg []token) *string {
	if len(arg) == 0 {
		return nil
	}
	var b strings.Builder
	wantString := true
	for _, t := range arg {
		switch {
		case t.kind == tokString && !t.computed:
			b.WriteString(t.value)
			wantString = false
		case t.kind == tokPunct && t.text == "+" && !wantString:
			wantString = true
		default:
			return nil
		}
	}
	if wantString {
		return nil
	}
	s := b.String()
	return &s
}
