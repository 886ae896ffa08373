package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestCLIRootHelpListsCommands(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("root help failed: %v", err)
	}

	out := b.String()
	for _, want := range []string{"record", "classify", "render", "publish", "version"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in root help output", want)
		}
	}
}

func TestCLIVersion(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(b.String(), "mltrail version") {
		t.Errorf("expected version banner, got %q", b.String())
	}
}

func TestCLIRecordHelp(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"record", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("record help failed: %v", err)
	}

	out := b.String()
	for _, flag := range []string{"--base", "--head", "--status", "--metrics-file", "--artifact"} {
		if !strings.Contains(out, flag) {
			t.Errorf("expected %s in record help", flag)
		}
	}
}
