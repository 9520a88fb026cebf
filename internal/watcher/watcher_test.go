package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	var ingested []string
	var mu sync.Mutex
	onArtifact := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}

	w := NewWatcher(nil, []string{".json"}, true, onArtifact)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
	_ = ingested
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "metadata")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	var ingested []string
	var mu sync.Mutex
	onArtifact := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}
	w := NewWatcher([]string{dir}, []string{".json"}, true, onArtifact)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "00102.json")
	if err := writeFile(fPath, "[]"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)
	mu.Lock()
	count := len(ingested)
	mu.Unlock()
	if count < 1 {
		t.Errorf("expected at least one ingest callback, got %d", count)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/00102.json", []string{".json"}, true},
		{"/a/00102.JSON", []string{".json"}, true},
		{"/a/thumb.jpg", []string{".json"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/00102.json", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles_ingestsMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "00102.json"), "[]"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "00102_0.jpg"), "x"); err != nil {
		t.Fatal(err)
	}

	var ingested []string
	var mu sync.Mutex
	onArtifact := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}
	w := NewWatcher([]string{dir}, []string{".json"}, true, onArtifact)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	w.SyncExistingFiles()

	mu.Lock()
	defer mu.Unlock()
	if len(ingested) != 1 || !strings.HasSuffix(ingested[0], "00102.json") {
		t.Errorf("expected one ingested artifact 00102.json, got %v", ingested)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "metadata", "batch1")
	// Ensure the root does not exist.
	_ = os.RemoveAll(filepath.Join(base, "metadata"))

	w := NewWatcher([]string{root}, []string{".json"}, true, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_StopDuringEvents(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{dir}, []string{".json"}, true, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			path := filepath.Join(dir, fmt.Sprintf("%05d.json", i))
			_ = os.WriteFile(path, []byte("[]"), 0600)
			_ = os.Remove(path)
		}
	}()

	// Stop while events are still streaming in, then again once idle.
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	w.Stop()
	close(stop)
	wg.Wait()
}

func TestWatcher_HandleNewDirectory_ingestsFilesInNewFolder(t *testing.T) {
	dir := t.TempDir()

	var ingested []string
	var mu sync.Mutex
	onArtifact := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}

	w := NewWatcher([]string{dir}, []string{".json"}, true, onArtifact)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Simulate an extraction run dropping a batch folder into the watched directory
	newFolder := filepath.Join(dir, "batch2")
	if err := mkdirAll(newFolder); err != nil {
		t.Fatal(err)
	}

	if err := writeFile(filepath.Join(newFolder, "00250.json"), "[]"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "00251.json"), "[]"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(newFolder, "00250_0.jpg"), "skip"); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce and directory handling
	time.Sleep(800 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(ingested) < 2 {
		t.Errorf("expected at least 2 ingested artifacts, got %d: %v", len(ingested), ingested)
	}

	aFound, bFound := false, false
	for _, p := range ingested {
		if strings.HasSuffix(p, "00250.json") {
			aFound = true
		}
		if strings.HasSuffix(p, "00251.json") {
			bFound = true
		}
		if strings.HasSuffix(p, "00250_0.jpg") {
			t.Errorf("keyframe image should not be ingested")
		}
	}
	if !aFound || !bFound {
		t.Errorf("expected 00250.json and 00251.json to be ingested, got %v", ingested)
	}
}

func TestWatcher_HandleNewDirectory_recursiveSubfolders(t *testing.T) {
	dir := t.TempDir()

	var ingested []string
	var mu sync.Mutex
	onArtifact := func(path string) {
		mu.Lock()
		ingested = append(ingested, path)
		mu.Unlock()
	}

	w := NewWatcher([]string{dir}, []string{".json"}, true, onArtifact)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Create a nested folder structure
	nested := filepath.Join(dir, "collection", "batch3")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "00300.json"), "[]"); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce and directory handling
	time.Sleep(800 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	found := false
	for _, p := range ingested {
		if strings.HasSuffix(p, "00300.json") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected 00300.json to be ingested, got %v", ingested)
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
