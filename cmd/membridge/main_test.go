package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "membridge version") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--help"}, &out); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Usage:", "--config", "MEMBRIDGE_PORT"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--bogus"}, &out); code != 2 {
		t.Errorf("expected exit 2 for unknown flag, got %d", code)
	}
}
