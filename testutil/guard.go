// Package testutil holds test helpers that keep package layering honest: the
// planning engines stay pure and only the kv facade reaches storage drivers.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// AssertNoDirectImports parses the non-test .go files in dir and fails when an
// import satisfies forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// AssertNoTransitiveDependency runs `go list -deps` on pattern and fails when
// any dependency satisfies forbidden.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	out, err := goListDeps(pattern)
	if err != nil {
		t.Fatalf("go list failed: %v\n%s", err, out)
	}
	var viols []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" && forbidden(line) {
			viols = append(viols, line)
		}
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden transitive dependencies (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

var goListDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

// StorageImportForbidden matches the kv facade, its drivers and the snapshot
// persistence layer.
func StorageImportForbidden(path string) bool {
	for _, p := range []string{"lifeplan/internal/kv", "lifeplan/internal/infra", "lifeplan/internal/persistence"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// ServiceImportForbidden matches the coordinator and the layers above it.
func ServiceImportForbidden(path string) bool {
	for _, p := range []string{"lifeplan/internal/core", "lifeplan/internal/cli", "lifeplan/internal/config", "lifeplan/internal/logging"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// EngineImportForbidden is what a pure planning engine must not import.
func EngineImportForbidden(path string) bool {
	return StorageImportForbidden(path) || ServiceImportForbidden(path)
}

// DriverModuleForbidden matches the third-party storage driver modules.
func DriverModuleForbidden(path string) bool {
	for _, p := range []string{"modernc.org/sqlite", "github.com/jackc/pgx", "github.com/dgraph-io/badger", "github.com/aws/aws-sdk-go-v2"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
