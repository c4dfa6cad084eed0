package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPaths(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.pdf", "b.txt", "c.bin", "sub/d.pdf", "sub/deep/e.md")
	j := func(p string) string { return filepath.Join(root, p) }
	exts := []string{".pdf", ".txt", ".md"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"explicit file kept regardless of extension", []string{j("c.bin")}, []string{j("c.bin")}},
		{"directory walked and filtered", []string{root}, []string{j("a.pdf"), j("b.txt"), j("sub/d.pdf"), j("sub/deep/e.md")}},
		{"doublestar pattern", []string{filepath.Join(root, "**", "*.pdf")}, []string{j("a.pdf"), j("sub/d.pdf")}},
		{"duplicates removed", []string{j("a.pdf"), filepath.Join(root, "*.pdf")}, []string{j("a.pdf")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPaths(tt.args, exts)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandPaths_errors(t *testing.T) {
	root := t.TempDir()
	if _, err := ExpandPaths([]string{filepath.Join(root, "*.pdf")}, nil); err == nil {
		t.Error("expected error when a pattern matches nothing")
	}
	if _, err := ExpandPaths([]string{filepath.Join(root, "[")}, nil); err == nil {
		t.Error("expected error for an invalid pattern")
	}
}
