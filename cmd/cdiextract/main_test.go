package main

import "testing"

func TestOutputPathArgUsesExplicitArgument(t *testing.T) {
	got := outputPathArg([]string{"disc.bin", "/tmp/out"}, "disc.bin")
	if got != "/tmp/out" {
		t.Fatalf("outputPathArg = %q, want /tmp/out", got)
	}
}

func TestOutputPathArgDefaultsToInputParentDir(t *testing.T) {
	got := outputPathArg([]string{"/discs/track.bin"}, "/discs/track.bin")
	if got != "/discs" {
		t.Fatalf("outputPathArg = %q, want /discs", got)
	}
}

func TestRootCommandRegistersAllSubcommands(t *testing.T) {
	root := newRootCommand()
	want := map[string]bool{
		"print":         false,
		"extract-files": false,
		"extract-mpegs": false,
		"extract-dyuv":  false,
		"extract-all":   false,
		"self-update":   false,
	}
	for _, cmd := range root.Commands() {
		want[cmd.Name()] = true
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}
