package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reguwatch/internal/domain"
	"github.com/kailas-cloud/reguwatch/internal/metrics"
)

const (
	vectorsFile = "vectors.bin"
	metaFile    = "index_meta.json"
)

type indexMeta struct {
	Dimensions int               `json:"dimensions"`
	Documents  []domain.Document `json:"documents"`
}

// Save writes the index to dir as a little-endian float32 vector blob
// plus a JSON document manifest. Files are written to temp paths and
// renamed so a crash mid-save never leaves a torn pair readable.
func (ix *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	ix.mu.RLock()
	meta := indexMeta{
		Dimensions: ix.dimensions,
		Documents:  make([]domain.Document, len(ix.entries)),
	}
	vecBuf := make([]byte, 0, len(ix.entries)*ix.dimensions*4)
	for i, e := range ix.entries {
		meta.Documents[i] = e.Document
		for _, f := range e.Embedding {
			vecBuf = binary.LittleEndian.AppendUint32(vecBuf, math.Float32bits(f))
		}
	}
	ix.mu.RUnlock()

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal index meta: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, vectorsFile), vecBuf); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, metaFile), metaBytes)
}

// Load reads a saved index from dir. A missing or corrupt snapshot is
// not fatal: the index starts empty and repopulates from the feeds.
func Load(dir string, dimensions int, logger *zap.Logger) *Index {
	ix := New(dimensions)

	metaBytes, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read index meta, starting empty", zap.Error(err))
		}
		return ix
	}

	var meta indexMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		logger.Warn("Corrupt index meta, starting empty", zap.Error(err))
		return ix
	}
	if meta.Dimensions != dimensions {
		logger.Warn("Index snapshot dimension mismatch, starting empty",
			zap.Int("snapshot", meta.Dimensions), zap.Int("configured", dimensions))
		return ix
	}

	vecBuf, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		logger.Warn("Failed to read index vectors, starting empty", zap.Error(err))
		return ix
	}
	if len(vecBuf) != len(meta.Documents)*dimensions*4 {
		logger.Warn("Index vector blob size mismatch, starting empty",
			zap.Int("bytes", len(vecBuf)), zap.Int("documents", len(meta.Documents)))
		return ix
	}

	entries := make([]Entry, len(meta.Documents))
	for i, doc := range meta.Documents {
		vec := make([]float32, dimensions)
		base := i * dimensions * 4
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(vecBuf[base+j*4:]))
		}
		entries[i] = Entry{Document: doc, Embedding: vec}
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()

	metrics.IndexSize.Set(float64(len(entries)))
	logger.Info("Loaded index snapshot", zap.Int("documents", len(entries)))
	return ix
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
