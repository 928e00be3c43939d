package extract

import (
	"go/ast"
	"go/parser"
	gotoken "go/token"
	"strconv"
	"strings"
)

// extractGo parses a Go file and reports every keyword call with its
// literal arguments. Go has no keyword arguments, so context only comes
// from a "c" position in the keyword spec.
func extractGo(path string, src []byte, keywords map[string][]Keyword, tags []string, emit func(kws []Keyword, c *call, comments []string)) error {
	fset := gotoken.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return err
	}

	// Tagged comment groups indexed by the line they end on.
	tagged := make(map[int][]string)
	for _, group := range f.Comments {
		text := strings.TrimSpace(group.Text())
		if !hasTag(text, tags) {
			continue
		}
		end := fset.Position(group.End()).Line
		tagged[end] = strings.Split(text, "\n")
	}

	ast.Inspect(f, func(n ast.Node) bool {
		ce, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		var funcName string

		switch fn := ce.Fun.(type) {
		case *ast.Ident:
			// Direct call: T("...")
			funcName = fn.Name
		case *ast.SelectorExpr:
			// Selector call: pkg.Tr("...") or obj.Tr("...")
			funcName = fn.Sel.Name
			if ident, ok := fn.X.(*ast.Ident); ok {
				qualified := ident.Name + "." + fn.Sel.Name
				if _, found := keywords[qualified]; found {
					funcName = qualified
				}
			}
		default:
			return true
		}

		kws, ok := keywords[funcName]
		if !ok {
			return true
		}

		line := fset.Position(ce.Lparen).Line
		c := &call{line: line}
		for _, arg := range ce.Args {
			c.positional = append(c.positional, stringFromExpr(arg))
		}

		comments := tagged[line-1]
		if comments == nil {
			comments = tagged[line]
		}
		emit(kws, c, comments)
		return true
	})

	return nil
}

// stringFromExpr extracts a string value from an AST expression.
// Handles string literals and simple concatenation (e.g. "foo" + "bar").
// Returns nil for anything computed.
func stringFromExpr(expr ast.Expr) *string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == gotoken.STRING {
			s, err := strconv.Unquote(e.Value)
			if err != nil {
				return nil
			}
			return &s
		}
	case *ast.ParenExpr:
		return stringFromExpr(e.X)
	case *ast.BinaryExpr:
		if e.Op == gotoken.ADD {
			left := stringFromExpr(e.X)
			right := stringFromExpr(e.Y)
			if left != nil && right != nil {
				s := *left + *right
				return &s
			}
		}
	}
	return nil
}
