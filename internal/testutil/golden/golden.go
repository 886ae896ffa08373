// Package golden compares rendered output against checked-in fixtures.
// Run tests with -update to rewrite the fixtures from current output.
package golden

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files from current output")

// Assert compares got against testdata/<name>.golden next to the calling
// test file, rewriting the fixture first when -update is set.
func Assert(t *testing.T, name, got string) {
	t.Helper()
	dir := callerTestdataDir(t)
	if *update {
		write(t, dir, name, got)
	}
	want := read(t, dir, name)
	if want != got {
		t.Errorf("output does not match %s.golden (run with -update to accept)\n--- want ---\n%s\n--- got ---\n%s", name, want, got)
	}
}

func callerTestdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(2)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "testdata")
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	checkName(t, name)

	path := filepath.Join(dir, name+".golden")
	data, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("read golden %s: %v", path, err)
	}
	return string(data)
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	checkName(t, name)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir testdata: %v", err)
	}
	path := filepath.Join(dir, name+".golden")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
}

func checkName(t *testing.T, name string) {
	t.Helper()
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		t.Fatalf("invalid golden name %q", name)
	}
}
