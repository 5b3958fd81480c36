package watch

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestFileWatcher_DetectsCatalogChanges(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "nested")
	if err := os.Mkdir(nested, 0755); err != nil {
		t.Fatal(err)
	}
	catalogFile := filepath.Join(nested, "types.yaml")
	if err := os.WriteFile(catalogFile, []byte("provider: {name: a}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changes [][]string
	watcher, err := NewFileWatcher([]string{tmpDir}, nil, zaptest.NewLogger(t), func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	watcher.SetDebounce(20 * time.Millisecond)
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0644)
	if err := os.WriteFile(catalogFile, []byte("provider: {name: b}\n"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(changes)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 {
		t.Fatal("Expected changes to be detected")
	}
	if !reflect.DeepEqual(changes[0], []string{catalogFile}) {
		t.Errorf("Expected only the catalog file, got %v", changes[0])
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, f)
	})

	debouncer.Add("b.yaml")
	debouncer.Add("a.yaml")
	debouncer.Add("b.yaml")

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 callback, got %d", len(calls))
	}
	if !reflect.DeepEqual(calls[0], []string{"a.yaml", "b.yaml"}) {
		t.Errorf("Expected sorted unique files, got %v", calls[0])
	}
}

func TestDebouncer_Stop(t *testing.T) {
	called := make(chan struct{}, 1)
	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func([]string) { called <- struct{}{} })

	debouncer.Add("a.yaml")
	debouncer.Stop()
	debouncer.Add("b.yaml")

	select {
	case <-called:
		t.Error("Expected no callback after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFileWatcher_ShouldIgnore(t *testing.T) {
	watcher := &FileWatcher{ignored: []string{"*.swp", "*~"}}

	tests := []struct {
		path     string
		expected bool
	}{
		{"types.yaml", false},
		{"types.yaml.swp", true},
		{"types.yaml~", true},
		{"catalogs/.git", true},
		{".", false},
	}

	for _, tt := range tests {
		if got := watcher.shouldIgnore(tt.path); got != tt.expected {
			t.Errorf("shouldIgnore(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestFileWatcher_Matches(t *testing.T) {
	tmpDir := t.TempDir()
	single := filepath.Join(tmpDir, "single.conf")
	os.WriteFile(single, nil, 0644)
	dir := filepath.Join(tmpDir, "catalogs")
	os.Mkdir(dir, 0755)

	watcher := &FileWatcher{paths: []string{dir, single}}

	tests := []struct {
		path     string
		expected bool
	}{
		{filepath.Join(dir, "a.yaml"), true},
		{filepath.Join(dir, "deep", "b.json"), true},
		{filepath.Join(dir, "readme.md"), false},
		{single, true},
		{filepath.Join(tmpDir, "other.yaml"), false},
	}

	for _, tt := range tests {
		if got := watcher.matches(tt.path); got != tt.expected {
			t.Errorf("matches(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	watcher, err := NewFileWatcher([]string{t.TempDir()}, nil, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func TestFileWatcher_StartMissingPath(t *testing.T) {
	watcher, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "missing")}, nil, nil, func([]string) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()
	if err := watcher.Start(); err == nil {
		t.Error("expected an error for a missing path")
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func([]string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("types.yaml")
	}
}
