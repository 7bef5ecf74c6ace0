package sqlinline

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

var (
	sqlKeyword    = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)
	sqlMarkerLine = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// TestQueriesCarryMarker verifies every query constant starts with the
// --sql <uuid> line that infra.SQLRunner requires, and that markers are unique.
func TestQueriesCarryMarker(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}

	seen := map[string]string{}
	fset := token.NewFileSet()
	for _, path := range files {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		ast.Inspect(file, func(n ast.Node) bool {
			spec, ok := n.(*ast.ValueSpec)
			if !ok {
				return true
			}
			for i, value := range spec.Values {
				lit, ok := value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				raw, err := strconv.Unquote(lit.Value)
				if err != nil || !sqlKeyword.MatchString(raw) {
					continue
				}
				name := spec.Names[i].Name
				first, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
				if !sqlMarkerLine.MatchString(strings.TrimSpace(first)) {
					t.Errorf("%s: %s has no --sql <uuid> marker", path, name)
					continue
				}
				if prev, dup := seen[first]; dup {
					t.Errorf("%s: %s reuses the marker of %s", path, name, prev)
				}
				seen[first] = name
			}
			return true
		})
	}
	if len(seen) == 0 {
		t.Fatalf("no queries found")
	}
}
