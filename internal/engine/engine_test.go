package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/minatori/shotseek/internal/embedding"
	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/internal/store"
	"github.com/minatori/shotseek/internal/vector"
)

func newTestEngine(t *testing.T, dim int) *Engine {
	t.Helper()
	idx, err := vector.NewFlat(dim)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(idx, store.NewMetadata(), embedding.NewMockEmbedder(dim))
}

func shotAt(video string, shot int, start, end float64) models.ShotRecord {
	return models.ShotRecord{
		VideoID:      video,
		ShotIndex:    shot,
		StartFrame:   int(start * 24),
		EndFrame:     int(end * 24),
		StartTime:    start,
		EndTime:      end,
		KeyframePath: fmt.Sprintf("keyframes/%s/%s_%d.jpg", video, video, shot),
	}
}

func TestEngine_IngestAndQuery(t *testing.T) {
	e := newTestEngine(t, 3)
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.8, 0.6, 0},
		{0, 1, 0},
	}
	for i, v := range vecs {
		pos, err := e.IngestShot(ctx, v, shotAt("00102", i, float64(i), float64(i+1)))
		if err != nil {
			t.Fatal(err)
		}
		if pos != i {
			t.Errorf("position %d, want %d", pos, i)
		}
	}

	shots, err := e.QueryVector(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 2 {
		t.Fatalf("got %d results", len(shots))
	}
	if shots[0].Position != 0 || shots[1].Position != 1 {
		t.Errorf("order = %d, %d; want 0, 1", shots[0].Position, shots[1].Position)
	}
	if shots[0].VideoID != "00102" || shots[0].ShotIndex != 0 {
		t.Errorf("joined record = %+v", shots[0].ShotRecord)
	}
	if shots[0].Score < shots[1].Score {
		t.Error("scores not descending")
	}
}

func TestEngine_EndToEndScenario(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()

	times := [][2]float64{{0.0, 2.0}, {2.0, 5.0}, {5.0, 9.0}}
	for i, tt := range times {
		vec := make([]float32, 4)
		vec[i] = 1
		if _, err := e.IngestShot(ctx, vec, shotAt("00102", i, tt[0], tt[1])); err != nil {
			t.Fatal(err)
		}
	}

	shots, err := e.ShotsForVideo("00102")
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 3 {
		t.Fatalf("ShotsForVideo returned %d records", len(shots))
	}
	for i, s := range shots {
		if s.ShotIndex != i {
			t.Errorf("shot %d out of order: index %d", i, s.ShotIndex)
		}
		if s.StartTime != times[i][0] || s.EndTime != times[i][1] {
			t.Errorf("shot %d times = (%v, %v), want (%v, %v)", i, s.StartTime, s.EndTime, times[i][0], times[i][1])
		}
	}

	stats := e.Stats()
	if !stats.Loaded {
		t.Error("stats should report loaded")
	}
	if stats.TotalVideos != 1 {
		t.Errorf("TotalVideos = %d, want 1", stats.TotalVideos)
	}
	if stats.TotalShots != 3 {
		t.Errorf("TotalShots = %d, want 3", stats.TotalShots)
	}
	if stats.TotalDurationSeconds != 9.0 {
		t.Errorf("TotalDurationSeconds = %v, want 9.0", stats.TotalDurationSeconds)
	}
	if stats.AverageShotDuration != 3.0 {
		t.Errorf("AverageShotDuration = %v, want 3.0", stats.AverageShotDuration)
	}

	if _, err := e.ShotsForVideo("09999"); !errors.Is(err, models.ErrVideoNotFound) {
		t.Errorf("unknown video err = %v, want ErrVideoNotFound", err)
	}
}

func TestEngine_NotReady(t *testing.T) {
	e := newTestEngine(t, 3)
	_, err := e.QueryVector(context.Background(), []float32{1, 0, 0}, 5)
	if !errors.Is(err, models.ErrIndexNotReady) {
		t.Errorf("err = %v, want ErrIndexNotReady", err)
	}

	stats := e.Stats()
	if stats.Loaded {
		t.Error("empty engine stats should report Loaded=false")
	}
	h := e.Health()
	if h.IndexLoaded || h.MetadataLoaded || h.VectorCount != 0 {
		t.Errorf("empty engine health = %+v", h)
	}
}

func TestEngine_IngestLeavesNoPartialState(t *testing.T) {
	e := newTestEngine(t, 3)
	ctx := context.Background()
	if _, err := e.IngestShot(ctx, []float32{1, 0, 0}, shotAt("v", 0, 0, 1)); err != nil {
		t.Fatal(err)
	}

	// Duplicate (video, shot).
	_, err := e.IngestShot(ctx, []float32{0, 1, 0}, shotAt("v", 0, 1, 2))
	if !errors.Is(err, models.ErrDuplicateShot) {
		t.Errorf("duplicate err = %v", err)
	}
	// Wrong dimension.
	_, err = e.IngestShot(ctx, []float32{1, 0}, shotAt("v", 1, 1, 2))
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("dimension err = %v", err)
	}
	// Zero embedding cannot be normalized.
	_, err = e.IngestShot(ctx, []float32{0, 0, 0}, shotAt("v", 2, 2, 3))
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("zero embedding err = %v", err)
	}
	// Invalid record.
	_, err = e.IngestShot(ctx, []float32{1, 0, 0}, shotAt("", 3, 3, 4))
	if !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("invalid record err = %v", err)
	}

	if e.Count() != 1 {
		t.Errorf("failed ingests changed count: %d", e.Count())
	}
	h := e.Health()
	if h.VectorCount != 1 || !h.MetadataLoaded {
		t.Errorf("health after failed ingests = %+v", h)
	}
}

func TestEngine_IngestNormalizes(t *testing.T) {
	e := newTestEngine(t, 3)
	ctx := context.Background()
	if _, err := e.IngestShot(ctx, []float32{3, 4, 0}, shotAt("v", 0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	shots, err := e.QueryVector(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(shots[0].Score)-0.6) > 1e-6 {
		t.Errorf("score = %v, want 0.6 (vector stored unit-normalized)", shots[0].Score)
	}
}

func TestEngine_SearchText(t *testing.T) {
	e := newTestEngine(t, 16)
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(16)

	phrases := []string{"red car on a bridge", "snowy mountain peak", "crowd at a concert"}
	for i, p := range phrases {
		vec, err := emb.Embed(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.IngestShot(ctx, vec, shotAt("00102", i, float64(i), float64(i+1))); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := e.Search(ctx, &models.SearchRequest{Query: "snowy mountain peak", TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("got %d results", len(resp.Results))
	}
	if resp.Results[0].Position != 1 {
		t.Errorf("top position = %d, want 1 (same phrase embeds identically)", resp.Results[0].Position)
	}
	if math.Abs(float64(resp.Results[0].Score)-1) > 1e-5 {
		t.Errorf("identical phrase score = %v, want ~1", resp.Results[0].Score)
	}
	if resp.Total != 3 || resp.Query != "snowy mountain peak" {
		t.Errorf("response meta = %+v", resp)
	}
}

func TestEngine_SearchValidation(t *testing.T) {
	e := newTestEngine(t, 8)
	ctx := context.Background()
	vec, _ := embedding.NewMockEmbedder(8).Embed(ctx, "x")
	if _, err := e.IngestShot(ctx, vec, shotAt("v", 0, 0, 1)); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Search(ctx, &models.SearchRequest{Query: "x", TopK: -2}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("negative top_k err = %v", err)
	}
	if _, err := e.Search(ctx, &models.SearchRequest{}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("empty request err = %v", err)
	}

	// Unset top_k defaults; one stored shot means one result.
	resp, err := e.Search(ctx, &models.SearchRequest{Query: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("got %d results", len(resp.Results))
	}
}

func TestEngine_QueryBatchMatchesSequential(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		vec := []float32{float32(i + 1), 1, 0, 0}
		if _, err := e.IngestShot(ctx, vec, shotAt("v", i, float64(i), float64(i+1))); err != nil {
			t.Fatal(err)
		}
	}
	queries := [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}
	batch, err := e.QueryBatch(ctx, queries, 4)
	if err != nil {
		t.Fatal(err)
	}
	for qi, q := range queries {
		single, err := e.QueryVector(ctx, q, 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(single) != len(batch[qi]) {
			t.Fatalf("query %d: batch %d, sequential %d", qi, len(batch[qi]), len(single))
		}
		for i := range single {
			if single[i] != batch[qi][i] {
				t.Errorf("query %d rank %d differs", qi, i)
			}
		}
	}
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snapshot")
	e := newTestEngine(t, 3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		vec := []float32{float32(3 - i), 1, 0}
		if _, err := e.IngestShot(ctx, vec, shotAt("00102", i, float64(2*i), float64(2*i+2))); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.SaveSnapshot(path); err != nil {
		t.Fatal(err)
	}

	restored := newTestEngine(t, 3)
	if err := restored.LoadSnapshot(path); err != nil {
		t.Fatal(err)
	}
	if !restored.Ready() {
		t.Error("engine not ready after snapshot load")
	}

	query := []float32{0.5, 0.5, 0}
	want, err := e.QueryVector(ctx, query, 3)
	if err != nil {
		t.Fatal(err)
	}
	got, err := restored.QueryVector(ctx, query, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("result counts differ: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: %+v vs %+v", i, got[i], want[i])
		}
	}
	if e.Stats() != restored.Stats() {
		t.Errorf("stats differ: %+v vs %+v", e.Stats(), restored.Stats())
	}
}

func TestEngine_LoadSnapshotDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.snapshot")
	small := newTestEngine(t, 3)
	ctx := context.Background()
	if _, err := small.IngestShot(ctx, []float32{1, 0, 0}, shotAt("v", 0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if err := small.SaveSnapshot(path); err != nil {
		t.Fatal(err)
	}

	wide := newTestEngine(t, 8)
	if err := wide.LoadSnapshot(path); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestEngine_ConcurrentReadersAndWriter(t *testing.T) {
	e := newTestEngine(t, 4)
	ctx := context.Background()
	if _, err := e.IngestShot(ctx, []float32{1, 0, 0, 0}, shotAt("seed", 0, 0, 1)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			vec := []float32{1, float32(i), 0, 0}
			if _, err := e.IngestShot(ctx, vec, shotAt("w", i, float64(i), float64(i+1))); err != nil {
				t.Errorf("ingest %d: %v", i, err)
				return
			}
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				shots, err := e.QueryVector(ctx, []float32{1, 0, 0, 0}, 5)
				if err != nil {
					t.Errorf("query: %v", err)
					return
				}
				// Every hit must resolve to a record; a torn read would not.
				for _, s := range shots {
					if s.VideoID == "" {
						t.Error("result missing metadata")
						return
					}
				}
				_ = e.Stats()
				_ = e.Health()
			}
		}()
	}
	wg.Wait()

	if e.Count() != 51 {
		t.Errorf("count = %d, want 51", e.Count())
	}
}
