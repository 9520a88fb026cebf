package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "a man riding a horse")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "a man riding a horse")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d for identical text", i)
		}
	}
	c, _ := e.Embed(ctx, "sunset over the sea")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	e := NewMockEmbedder(128)
	emb, err := e.Embed(context.Background(), "any text")
	if err != nil {
		t.Fatal(err)
	}
	if len(emb) != 128 {
		t.Fatalf("len = %d", len(emb))
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-5 {
		t.Errorf("norm = %v, want 1", math.Sqrt(sum))
	}
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	e := NewMockEmbedder(0)
	if e.Dimensions() != 512 {
		t.Errorf("default dimensions = %d, want 512", e.Dimensions())
	}
}

func TestMockEmbedder_EmbedBatch(t *testing.T) {
	e := NewMockEmbedder(32)
	ctx := context.Background()
	texts := []string{"one", "two", "three"}
	batch, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch len = %d", len(batch))
	}
	single, _ := e.Embed(ctx, "two")
	for i := range single {
		if batch[1][i] != single[i] {
			t.Fatal("batch embedding differs from single embedding")
		}
	}
}
