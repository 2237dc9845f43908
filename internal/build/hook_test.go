package build

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestNopHook(t *testing.T) {
	if err := NopHook()(context.Background(), "/tmp/content"); err != nil {
		t.Fatalf("NopHook returned %v", err)
	}
}

func TestExecHookEmptyCommand(t *testing.T) {
	hook := ExecHook(nil, &bytes.Buffer{})
	if err := hook(context.Background(), "/tmp/content"); err != nil {
		t.Fatalf("empty command returned %v", err)
	}
}

func TestExecHookSubstitutesDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/echo")
	}
	var out bytes.Buffer
	hook := ExecHook([]string{"echo", "building", "{dir}"}, &out)
	if err := hook(context.Background(), "/site/content"); err != nil {
		t.Fatalf("exec hook: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "building /site/content" {
		t.Errorf("output = %q, want %q", got, "building /site/content")
	}
}

func TestExecHookFailurePropagates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses false(1)")
	}
	hook := ExecHook([]string{"false"}, &bytes.Buffer{})
	if err := hook(context.Background(), "/tmp/content"); err == nil {
		t.Fatal("expected error from failing command")
	}
}
