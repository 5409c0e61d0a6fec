package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNeedsReset(t *testing.T) {
	tests := []struct {
		name        string
		lastResetAt int64
		now         int64
		want        bool
	}{
		{"fresh_epoch", 1000, 1010, false},
		{"inside_buffer", 1000, 1055, true},
		{"just_before_buffer", 1000, 1054, false},
		{"long_past", 1000, 5000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsReset(tt.lastResetAt, tt.now); got != tt.want {
				t.Errorf("NeedsReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCutoff(t *testing.T) {
	if got := Cutoff(1000, 1010, 5); got != 45*time.Second {
		t.Errorf("Cutoff() = %v, want 45s", got)
	}
	if got := Cutoff(1000, 2000, 5); got != 0 {
		t.Errorf("Cutoff() = %v, want 0", got)
	}
}

func TestLatest(t *testing.T) {
	var l Latest[int]
	if _, ok := l.Get(); ok {
		t.Fatal("empty cell reported a value")
	}

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			l.Set(v)
			if _, ok := l.Get(); !ok {
				t.Error("cell lost its value")
			}
		}(i)
	}
	wg.Wait()

	if v, ok := l.Get(); !ok || v < 1 || v > 8 {
		t.Errorf("Get() = %v, %v", v, ok)
	}
}

func TestShortKey(t *testing.T) {
	if got := ShortKey("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"); got != "9xQe...VFin" {
		t.Errorf("ShortKey() = %v", got)
	}
	if got := ShortKey("short"); got != "short" {
		t.Errorf("ShortKey() = %v", got)
	}
}

func TestMyRecover(t *testing.T) {
	dir := t.TempDir()
	SetPanicDir(dir)
	defer SetPanicDir(".")

	func() {
		defer MyRecover()
		panic("worker exploded")
	}()

	files, err := filepath.Glob(filepath.Join(dir, "panic_dump_*"))
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(files) != 1 {
		t.Fatalf("got %d panic dumps", len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err.Error())
	}
	if !strings.HasPrefix(string(data), "worker exploded\n") {
		t.Errorf("unexpected dump %q", data)
	}
}
