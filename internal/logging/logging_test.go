package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShouldReport(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, true},
		{4, false},
		{9, false},
		{10, true},
		{11, false},
		{20, true},
	}
	for _, tt := range tests {
		if got := ShouldReport(tt.n); got != tt.want {
			t.Errorf("ShouldReport(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestFailureRun(t *testing.T) {
	var r FailureRun
	for i := 1; i <= 4; i++ {
		n, report := r.Fail()
		if n != i {
			t.Fatalf("Fail() count = %d, want %d", n, i)
		}
		if report != (i <= 3) {
			t.Fatalf("Fail() report at %d = %v", i, report)
		}
	}
	if got := r.Succeed(); got != 4 {
		t.Fatalf("Succeed() = %d, want 4", got)
	}
	if r.Count() != 0 {
		t.Fatalf("Count after Succeed = %d, want 0", r.Count())
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roomdeck.log")
	if err := Setup(Options{File: path, Level: "debug"}); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	Logger("test").Infof("hello %s", "file")
	_ = Logger("test").Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file = %q, want it to contain the message", string(data))
	}
}

func TestSetup_RejectsBadLevel(t *testing.T) {
	if err := Setup(Options{Level: "loud"}); err == nil {
		t.Fatal("Setup returned nil error for unknown level")
	}
}
