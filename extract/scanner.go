package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// commentStyle selects which comment syntaxes the scanner skips for a
// source language.
type commentStyle struct {
	hash     bool // # to end of line
	slash    bool // // to end of line and /* ... */
	dash     bool // -- to end of line
	backtick bool // `...` is a string literal
}

var commentStyles = map[string]commentStyle{
	"Python":     {hash: true},
	"Shell":      {hash: true},
	"Perl":       {hash: true},
	"Ruby":       {hash: true},
	"awk":        {hash: true},
	"Tcl":        {hash: true},
	"PHP":        {hash: true, slash: true},
	"C":          {slash: true},
	"C++":        {slash: true},
	"ObjectiveC": {slash: true},
	"Java":       {slash: true},
	"C#":         {slash: true},
	"Vala":       {slash: true},
	"JavaScript": {slash: true, backtick: true},
	"Lua":        {dash: true},
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
	tokComment
)

type token struct {
	kind tokenKind
	text string // identifier, punctuation or comment body
	// value is the decoded string literal; computed marks literals whose
	// value is only known at run time (f-strings, interpolated templates).
	value    string
	computed bool
	line     int
}

// lexer splits source text into the few token kinds the call matcher
// needs. It never fails: unterminated literals run to end of input.
type lexer struct {
	src   string
	pos   int
	line  int
	style commentStyle
}

func tokenize(src string, style commentStyle) []token {
	lx := &lexer{src: src, line: 1, style: style}
	var toks []token
	for {
		tok, ok := lx.next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

func (lx *lexer) peek(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *lexer) next() (token, bool) {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\n':
			lx.line++
			lx.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			lx.pos++
		case lx.style.hash && c == '#':
			return lx.lineComment(1), true
		case lx.style.slash && c == '/' && lx.peek(1) == '/':
			return lx.lineComment(2), true
		case lx.style.dash && c == '-' && lx.peek(1) == '-':
			return lx.lineComment(2), true
		case lx.style.slash && c == '/' && lx.peek(1) == '*':
			return lx.blockComment(), true
		case c == '"' || c == '\'' || (c == '`' && lx.style.backtick):
			return lx.stringLit(""), true
		case isIdentStart(c):
			start := lx.pos
			for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
				lx.pos++
			}
			word := lx.src[start:lx.pos]
			if q := lx.peek(0); (q == '"' || q == '\'') && isStringPrefix(word) {
				return lx.stringLit(strings.ToLower(word)), true
			}
			return token{kind: tokIdent, text: word, line: lx.line}, true
		default:
			return lx.punct(), true
		}
	}
	return token{}, false
}

func (lx *lexer) lineComment(marker int) token {
	start := lx.pos + marker
	end := strings.IndexByte(lx.src[lx.pos:], '\n')
	if end < 0 {
		lx.pos = len(lx.src)
	} else {
		lx.pos += end
	}
	return token{kind: tokComment, text: strings.TrimSpace(lx.src[start:lx.pos]), line: lx.line}
}

func (lx *lexer) blockComment() token {
	line := lx.line
	start := lx.pos + 2
	end := strings.Index(lx.src[start:], "*/")
	var body string
	if end < 0 {
		body = lx.src[start:]
		lx.pos = len(lx.src)
	} else {
		body = lx.src[start : start+end]
		lx.pos = start + end + 2
	}
	lx.line += strings.Count(body, "\n")
	// Report the block at its last line so it sits right above a call.
	return token{kind: tokComment, text: cleanBlockComment(body), line: line + strings.Count(body, "\n")}
}

func cleanBlockComment(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		lines[i] = strings.TrimSpace(strings.TrimPrefix(l, "*"))
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

// punct emits one punctuation token. Multi-character operators that
// contain '=' are kept whole so that "a == b" is never read as a
// keyword argument.
func (lx *lexer) punct() token {
	line := lx.line
	if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=' && strings.IndexByte("=!<>:+-*/%&|^", lx.src[lx.pos]) >= 0 {
		text := lx.src[lx.pos : lx.pos+2]
		lx.pos += 2
		return token{kind: tokPunct, text: text, line: line}
	}
	if lx.src[lx.pos] == '=' && lx.peek(1) == '>' {
		lx.pos += 2
		return token{kind: tokPunct, text: "=>", line: line}
	}
	_, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	text := lx.src[lx.pos : lx.pos+size]
	lx.pos += size
	return token{kind: tokPunct, text: text, line: line}
}

// stringLit reads a quoted literal starting at lx.pos. prefix holds the
// lower-cased Python-style string prefix, if any.
func (lx *lexer) stringLit(prefix string) token {
	line := lx.line
	q := lx.src[lx.pos]
	raw := strings.ContainsRune(prefix, 'r')
	computed := strings.ContainsRune(prefix, 'f')

	delim := string(q)
	if q != '`' && lx.peek(1) == q && lx.peek(2) == q {
		delim = strings.Repeat(string(q), 3)
	}
	lx.pos += len(delim)

	start := lx.pos
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '\\' {
			// Raw strings keep the backslash but still cannot end on an
			// escaped quote.
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '\n' {
				lx.line++
			}
			lx.pos += 2
			continue
		}
		if c == '\n' {
			if len(delim) == 1 && q != '`' {
				break
			}
			lx.line++
		}
		if strings.HasPrefix(lx.src[lx.pos:], delim) {
			break
		}
		lx.pos++
	}
	end := min(lx.pos, len(lx.src))
	body := lx.src[start:end]
	if strings.HasPrefix(lx.src[end:], delim) {
		lx.pos = end + len(delim)
	}

	value := body
	if !raw {
		value = unescapeLiteral(body)
	}
	if q == '`' && strings.Contains(body, "${") {
		computed = true
	}
	return token{kind: tokString, value: value, computed: computed, line: line}
}

// unescapeLiteral decodes the backslash escapes shared by Python, C and
// JavaScript string literals. Unknown escapes keep the backslash.
func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// line continuation
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"', '`':
			b.WriteByte(e)
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+width <= len(s) {
				if n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32); err == nil {
					b.WriteRune(rune(n))
					i += width
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '$' || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isStringPrefix(word string) bool {
	switch strings.ToLower(word) {
	case "r", "u", "b", "f", "rb", "br", "fr", "rf", "l", "u8":
		return true
	}
	return false
}
