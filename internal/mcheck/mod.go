// Package main provides custom checks for "go vet".
//
// The commentLen check verifies that no comment line exceeds MaxLen. It
// ignores files that have as first comment a "// Code generated..." comment
// and lines that start with "//go:generate".
//
// The errCompare check reports comparisons with == or != against the error
// values of the connection package. Those values only carry a kind and must
// be matched with xerrors.Is.
//
// It can be used like the following:
// `go build && go vet -vettool=./mcheck -commentLen -errCompare ./...`
package main

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/unitchecker"
)

// MaxLen is the maximum length of a comment
var MaxLen = 80

var commentAnalyzer = &analysis.Analyzer{
	Name: "commentLen",
	Doc:  "checks the lengths of comments",
	Run:  runComment,
}

var errCompareAnalyzer = &analysis.Analyzer{
	Name: "errCompare",
	Doc:  "checks that connection errors are not compared with == or !=",
	Run:  runErrCompare,
}

func main() {
	unitchecker.Main(
		commentAnalyzer,
		errCompareAnalyzer,
	)
}

// runComment parses all the comments in ast.File
func runComment(pass *analysis.Pass) (interface{}, error) {
fileLoop:
	for _, file := range pass.Files {
		isFirst := true
		for _, cg := range file.Comments {
			for _, c := range cg.List {
				if isFirst && strings.HasPrefix(c.Text, "// Code generated") {
					continue fileLoop
				}
				// in case of /* */ comment there might be multiple lines
				lines := strings.Split(c.Text, "\n")
				for _, line := range lines {
					if strings.HasPrefix(line, "//go:generate") {
						continue
					}
					if len(line) > MaxLen {
						pass.Reportf(c.Pos(), "Comment too long: %s (%d)",
							line, len(line))
					}
				}
				isFirst = false
			}
		}
	}
	return nil, nil
}

func runErrCompare(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(node ast.Node) bool {
			expr, ok := node.(*ast.BinaryExpr)
			if !ok || (expr.Op != token.EQL && expr.Op != token.NEQ) {
				return true
			}

			for _, operand := range []ast.Expr{expr.X, expr.Y} {
				name, found := connectionError(pass.TypesInfo, operand)
				if found {
					pass.Reportf(expr.OpPos, "comparison with connection.%s: "+
						"use xerrors.Is instead of %s", name, expr.Op)
					break
				}
			}

			return true
		})
	}
	return nil, nil
}

// connectionError returns the name of the variable if the expression refers
// to an error value declared by a package named connection.
func connectionError(info *types.Info, expr ast.Expr) (string, bool) {
	var ident *ast.Ident

	for {
		paren, ok := expr.(*ast.ParenExpr)
		if !ok {
			break
		}

		expr = paren.X
	}

	switch x := expr.(type) {
	case *ast.SelectorExpr:
		ident = x.Sel
	case *ast.Ident:
		ident = x
	default:
		return "", false
	}

	obj, ok := info.Uses[ident].(*types.Var)
	if !ok || obj.Pkg() == nil {
		return "", false
	}

	if obj.Pkg().Name() != "connection" || obj.Parent() != obj.Pkg().Scope() {
		return "", false
	}

	if !strings.HasPrefix(obj.Name(), "Err") {
		return "", false
	}

	return obj.Name(), true
}
