// Package snapshot persists the paired vector index and metadata store as a
// single binary file.
//
// Layout, all integers little-endian:
//
//	version   uint32
//	dimension uint32
//	count     uint64
//	vectors   count * dimension float32 values
//	records   count entries of uint32 length + JSON-encoded ShotRecord
//
// Records keep the same JSON encoding as the ingest artifacts, so a snapshot
// stays inspectable with a hex dump and a JSON decoder.
package snapshot

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/minatori/shotseek/internal/models"
	"github.com/minatori/shotseek/internal/store"
	"github.com/minatori/shotseek/internal/vector"
)

// FormatVersion is written to every snapshot header. Readers reject any
// other value.
const FormatVersion uint32 = 1

const (
	maxDimension   = 1 << 16
	maxRecordBytes = 1 << 20
)

// Save writes idx and meta to path. The snapshot is written to a temp file in
// the target directory and renamed into place, so a crash mid-write never
// leaves a partial snapshot under path.
func Save(path string, idx vector.Index, meta *store.Metadata) error {
	if path == "" {
		return fmt.Errorf("%w: snapshot path is empty", models.ErrInvalidArgument)
	}
	if idx.Count() != meta.Len() {
		return fmt.Errorf("%w: index holds %d vectors, metadata holds %d records", models.ErrInvalidArgument, idx.Count(), meta.Len())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if err := binary.Write(w, binary.LittleEndian, FormatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.Dimension())); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(idx.Count())); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i := 0; i < idx.Count(); i++ {
		vec, err := idx.Vector(i)
		if err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}
	for i, record := range meta.Records() {
		data, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
			return fmt.Errorf("write record %d length: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot into place: %w", err)
	}
	return nil
}

// Load reads a snapshot and rebuilds the index and metadata store. Structural
// damage surfaces as ErrCorruptSnapshot; an unknown header version as
// ErrVersionMismatch.
func Load(path string) (*vector.Flat, *store.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("%w: short header: %v", models.ErrCorruptSnapshot, err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: file version %d, supported %d", models.ErrVersionMismatch, version, FormatVersion)
	}
	var dim uint32
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, nil, fmt.Errorf("%w: short header: %v", models.ErrCorruptSnapshot, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, nil, fmt.Errorf("%w: short header: %v", models.ErrCorruptSnapshot, err)
	}
	if dim == 0 || dim > maxDimension {
		return nil, nil, fmt.Errorf("%w: implausible dimension %d", models.ErrCorruptSnapshot, dim)
	}
	if count > math.MaxInt32 {
		return nil, nil, fmt.Errorf("%w: implausible count %d", models.ErrCorruptSnapshot, count)
	}

	ctx := context.Background()
	idx, err := vector.NewFlat(int(dim))
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild index: %w", err)
	}
	buf := make([]byte, int(dim)*4)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, fmt.Errorf("%w: vector block ends at %d of %d: %v", models.ErrCorruptSnapshot, i, count, err)
		}
		if _, err := idx.Append(ctx, bytesToFloat32Slice(buf)); err != nil {
			return nil, nil, fmt.Errorf("rebuild vector %d: %w", i, err)
		}
	}

	meta := store.NewMetadata()
	for i := uint64(0); i < count; i++ {
		var recLen uint32
		if err := binary.Read(r, binary.LittleEndian, &recLen); err != nil {
			return nil, nil, fmt.Errorf("%w: record block ends at %d of %d: %v", models.ErrCorruptSnapshot, i, count, err)
		}
		if recLen == 0 || recLen > maxRecordBytes {
			return nil, nil, fmt.Errorf("%w: record %d length %d", models.ErrCorruptSnapshot, i, recLen)
		}
		data := make([]byte, recLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, nil, fmt.Errorf("%w: record %d truncated: %v", models.ErrCorruptSnapshot, i, err)
		}
		var record models.ShotRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, nil, fmt.Errorf("%w: record %d not valid JSON: %v", models.ErrCorruptSnapshot, i, err)
		}
		if _, err := meta.Append(record); err != nil {
			return nil, nil, fmt.Errorf("%w: record %d rejected: %v", models.ErrCorruptSnapshot, i, err)
		}
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return nil, nil, fmt.Errorf("%w: trailing data after %d records", models.ErrCorruptSnapshot, count)
	}
	return idx, meta, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
