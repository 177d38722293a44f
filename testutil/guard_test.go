package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal deep", InternalImportForbidden, "countingsheep/internal/core", true},
		{"internal root", InternalImportForbidden, "internal/core", true},
		{"internal suffix only", InternalImportForbidden, "example.com/internal", false},
		{"pkg", InternalImportForbidden, "countingsheep/pkg/domain", false},
		{"stdlib", ThirdPartyImportForbidden, "encoding/json", false},
		{"module local", ThirdPartyImportForbidden, "countingsheep/pkg/domain", false},
		{"github", ThirdPartyImportForbidden, "github.com/stretchr/testify", true},
		{"gopkg", ThirdPartyImportForbidden, "gopkg.in/yaml.v3", true},
		{"infra", InfraImportForbidden, "countingsheep/internal/infra/kv/sqlite", true},
		{"persistence", InfraImportForbidden, "countingsheep/internal/persistence", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Errorf("%s: pred(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\tx \"github.com/acme/x\"\n)\nvar _ = fmt.Sprint\nvar _ = x.Y\n")
	writeFile(t, dir, "a_test.go", "package tmp\nimport \"github.com/acme/ignored\"\n")
	writeFile(t, dir, "notes.txt", "import \"github.com/acme/txt\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub"), "b.go", "package sub\nimport \"github.com/acme/sub\"\n")

	viols, err := directImportViolations(dir, ThirdPartyImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "github.com/acme/x") {
		t.Fatalf("unexpected violations: %v", viols)
	}
}

func TestAssertNoDirectImportsPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	AssertNoDirectImports(t, dir, ThirdPartyImportForbidden, "stdlib only")
}

type captureFatal struct{ msg string }

func (c *captureFatal) Fatalf(format string, args ...any) { c.msg = fmt.Sprintf(format, args...) }

func TestFailIfViolations(t *testing.T) {
	var c captureFatal
	failIfViolations(&c, "direct imports", "reason", nil)
	if c.msg != "" {
		t.Fatalf("unexpected failure: %s", c.msg)
	}
	failIfViolations(&c, "direct imports", "reason", []string{"a", "b"})
	if !strings.Contains(c.msg, "reason") || !strings.Contains(c.msg, "a\nb") {
		t.Fatalf("unexpected message: %q", c.msg)
	}
}

func TestTransitiveDependencyViolationsUsesGoList(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\n\ncountingsheep/internal/infra/kv/redis\ncountingsheep/pkg/domain\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", InfraImportForbidden)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(viols) != 1 || viols[0] != "countingsheep/internal/infra/kv/redis" {
		t.Fatalf("unexpected violations: %v", viols)
	}
	AssertNoTransitiveDependency(t, "./...", func(p string) bool { return p == "nope" }, "none")
}
