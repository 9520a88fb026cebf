// Package e2e provides end-to-end tests; this file renders the corpus into artifact files.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minatori/shotseek/internal/embedding"
	"github.com/minatori/shotseek/internal/ingest"
	"github.com/minatori/shotseek/internal/models"
)

// fixtureFPS is the frame rate the generated artifacts pretend their videos had.
const fixtureFPS = 24

// WriteCorpusArtifacts writes one artifact JSON per corpus video into dir,
// embedding each shot phrase with the provided embedder. Returns the number of
// shots written.
func WriteCorpusArtifacts(dir string, embedder embedding.Embedder, corpus *Corpus) (int, error) {
	total := 0
	for videoID, shots := range corpus.Videos {
		artifact := make([]ingest.ArtifactShot, 0, len(shots))
		for i, shot := range shots {
			vec, err := embedder.Embed(context.Background(), shot.Phrase)
			if err != nil {
				return total, fmt.Errorf("embed %s/%d: %w", videoID, i, err)
			}
			artifact = append(artifact, ingest.ArtifactShot{
				ShotRecord: models.ShotRecord{
					VideoID:      videoID,
					ShotIndex:    i,
					StartFrame:   int(shot.StartTime * fixtureFPS),
					EndFrame:     int(shot.EndTime * fixtureFPS),
					StartTime:    shot.StartTime,
					EndTime:      shot.EndTime,
					KeyframePath: fmt.Sprintf("keyframes/%s/%s_%d.jpg", videoID, videoID, i),
				},
				Embedding: vec,
			})
			total++
		}
		data, err := json.Marshal(artifact)
		if err != nil {
			return total, fmt.Errorf("marshal artifact %s: %w", videoID, err)
		}
		path := filepath.Join(dir, videoID+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return total, fmt.Errorf("write artifact %s: %w", videoID, err)
		}
	}
	return total, nil
}
