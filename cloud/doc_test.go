package cloud_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// TestExportedFuncsDocumented parses the wrapper packages and reports every
// exported function or method without a doc comment.
func TestExportedFuncsDocumented(t *testing.T) {
	dirs := []string{
		".", "../storage", "../database", "../queue", "../compute",
		"../identity", "../monitoring", "../templates", "../checkpoint",
		"../metrics", "../config",
	}

	fset := token.NewFileSet()
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		if err != nil {
			t.Fatalf("failed to list %s: %v", dir, err)
		}
		for _, path := range files {
			if strings.HasSuffix(path, "_test.go") {
				continue
			}
			file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				t.Fatalf("failed to parse %s: %v", path, err)
			}
			for _, decl := range file.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || !fn.Name.IsExported() || fn.Doc != nil {
					continue
				}
				t.Errorf("%s: %s has no doc comment", fset.Position(fn.Pos()), fn.Name.Name)
			}
		}
	}
}
