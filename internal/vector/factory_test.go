package vector

import (
	"context"
	"testing"
)

func TestNew_Flat(t *testing.T) {
	idx, err := New("flat", 3)
	if err != nil {
		t.Fatalf("New(flat): %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if _, err := idx.Append(ctx, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx.Count() != 1 {
		t.Errorf("Count=%d, want 1", idx.Count())
	}
	if idx.Dimension() != 3 {
		t.Errorf("Dimension=%d, want 3", idx.Dimension())
	}
}

func TestNew_Empty(t *testing.T) {
	// Empty string should default to flat
	idx, err := New("", 3)
	if err != nil {
		t.Fatalf("New(''): %v", err)
	}
	defer idx.Close()

	if idx.Count() != 0 {
		t.Errorf("Count=%d, want 0", idx.Count())
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("hnsw", 3)
	if err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNew_InvalidDimension(t *testing.T) {
	_, err := New("flat", 0)
	if err == nil {
		t.Error("expected error for zero dimension")
	}
}
