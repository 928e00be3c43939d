package extract

import (
	"strconv"
	"strings"
)

// Keyword defines a function call to scan for and how to extract arguments.
// Follows xgettext --keyword syntax:
//
//	"tr"            single-argument: tr(msgid)
//	"ngettext:1,2"  positional: ngettext(singular, plural, n)
//	"pgettext:1c,2" with context: arg 1 is context, arg 2 is msgid
//
// Every keyword also accepts a context="..." keyword argument in source
// languages that have them.
type Keyword struct {
	// FuncName is the function name to match (e.g. "tr", "_", "T").
	// Can be a bare name (matches any receiver) or "pkg.Func" (Go only).
	FuncName string
	// MsgIDArg is the 1-based argument index for msgid (default 1).
	MsgIDArg int
	// PluralArg is the 1-based argument index for plural msgid (0 = none).
	PluralArg int
	// ContextArg is the 1-based argument index for msgctxt (0 = none).
	ContextArg int
}

// DefaultKeywords are the call names recognized when none are configured.
var DefaultKeywords = []string{
	"tr:1,2c",
	"_",
	"N_",
	"gettext",
	"ngettext:1,2",
	"ugettext",
	"ungettext:1,2",
	"dgettext:2",
	"dngettext:2,3",
	"pgettext:1c,2",
	"npgettext:1c,2,3",
}

// DefaultCommentTags mark source comments that are copied into the
// template as extracted comments for translators.
var DefaultCommentTags = []string{"TRANSLATORS:", "NOTE:", "I18N:", "CONTEXT:"}

// ParseKeyword parses an xgettext-style keyword spec into a Keyword.
// Examples:
//
//	"T"             -> Keyword{FuncName:"T", MsgIDArg:1}
//	"N:1,2"         -> Keyword{FuncName:"N", MsgIDArg:1, PluralArg:2}
//	"pgettext:1c,2" -> Keyword{FuncName:"pgettext", ContextArg:1, MsgIDArg:2}
func ParseKeyword(spec string) Keyword {
	kw := Keyword{MsgIDArg: 1}

	name, args, found := strings.Cut(strings.TrimSpace(spec), ":")
	kw.FuncName = name
	if !found {
		return kw
	}

	seenMsgID := false
	for _, arg := range strings.Split(args, ",") {
		arg = strings.TrimSpace(arg)
		if strings.HasSuffix(arg, "c") {
			if n, err := strconv.Atoi(strings.TrimSuffix(arg, "c")); err == nil && n > 0 {
				kw.ContextArg = n
			}
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			continue
		}
		if !seenMsgID {
			kw.MsgIDArg = n
			seenMsgID = true
		} else {
			kw.PluralArg = n
		}
	}

	return kw
}

// keywordMap indexes parsed specs by function name. Several specs may
// share a name.
func keywordMap(specs []string) map[string][]Keyword {
	m := make(map[string][]Keyword, len(specs))
	for _, spec := range specs {
		kw := ParseKeyword(spec)
		if kw.FuncName == "" {
			continue
		}
		m[kw.FuncName] = append(m[kw.FuncName], kw)
	}
	return m
}

// call is one matched keyword call with its literal arguments resolved.
// Positional entries are nil where the argument was not a literal.
type call struct {
	positional []*string
	context    *string
	line       int

	computedContext bool
}

// message applies kw to c. ok is false when a required argument is
// missing or computed.
func (c *call) message(kw Keyword) (msgid, plural, ctx string, ok bool) {
	arg := func(n int) (string, bool) {
		if n <= 0 || n > len(c.positional) || c.positional[n-1] == nil {
			return "", false
		}
		return *c.positional[n-1], true
	}

	if c.computedContext {
		return "", "", "", false
	}
	msgid, ok = arg(kw.MsgIDArg)
	if !ok || msgid == "" {
		return "", "", "", false
	}
	if kw.PluralArg > 0 {
		if plural, ok = arg(kw.PluralArg); !ok || plural == "" {
			return "", "", "", false
		}
	}
	if c.context != nil {
		ctx = *c.context
	} else if kw.ContextArg > 0 {
		if kw.ContextArg <= len(c.positional) {
			if ctx, ok = arg(kw.ContextArg); !ok {
				return "", "", "", false
			}
		}
	}
	return msgid, plural, ctx, true
}
