// Package ingest loads shot artifacts produced by the extraction tooling into the engine.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minatori/shotseek/internal/models"
)

// ArtifactShot is one element of a per-video artifact file: a shot record
// together with the embedding of its keyframe.
type ArtifactShot struct {
	models.ShotRecord
	Embedding []float32 `json:"embedding"`
}

// ParseArtifact decodes an artifact payload, a JSON array of shots with
// inline embeddings.
func ParseArtifact(data []byte) ([]ArtifactShot, error) {
	var shots []ArtifactShot
	if err := json.Unmarshal(data, &shots); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	return shots, nil
}

// ReadArtifact reads and parses an artifact file. Records with an empty
// video_id inherit one derived from the file name, so artifacts named
// <video>.json need not repeat the ID per shot.
func ReadArtifact(path string) ([]ArtifactShot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	shots, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fallback := VideoIDFromPath(path)
	for i := range shots {
		if shots[i].VideoID == "" {
			shots[i].VideoID = fallback
		}
	}
	return shots, nil
}

// VideoIDFromPath returns the artifact file name without its extension.
func VideoIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
