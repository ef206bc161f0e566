package sentiment

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// artifactVersion is bumped whenever the bundle layout changes.
const artifactVersion = 1

// ErrArtifactVersion is returned when a model file was written by an
// incompatible build.
var ErrArtifactVersion = errors.New("unsupported model artifact version")

type artifact struct {
	Version int
	Model   *TrainedModel
}

// WriteModel gob-encodes model to w.
func WriteModel(w io.Writer, model *TrainedModel) error {
	if model == nil {
		return ErrModelNotTrained
	}
	if err := gob.NewEncoder(w).Encode(artifact{Version: artifactVersion, Model: model}); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// ReadModel decodes a model written by WriteModel.
func ReadModel(r io.Reader) (*TrainedModel, error) {
	var a artifact
	if err := gob.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrArtifactVersion, a.Version, artifactVersion)
	}
	if a.Model == nil || a.Model.Vectorizer == nil || a.Model.Classifier == nil {
		return nil, fmt.Errorf("decode model: %w", ErrModelNotTrained)
	}
	return a.Model, nil
}

// SaveModel writes model to path through a temp file and rename, so path
// never holds a partial model.
func SaveModel(path string, model *TrainedModel) error {
	w, err := newAtomicWriter(path)
	if err != nil {
		return err
	}
	if writeErr := WriteModel(w, model); writeErr != nil {
		_ = w.Abort()
		return writeErr
	}
	return w.Commit()
}

// LoadModel reads the model stored at path.
func LoadModel(path string) (*TrainedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return ReadModel(f)
}

type atomicWriter struct {
	path    string
	tmpPath string
	file    *os.File
}

func newAtomicWriter(path string) (*atomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &atomicWriter{path: path, tmpPath: tmp.Name(), file: tmp}, nil
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *atomicWriter) Commit() error {
	if err := w.file.Sync(); err != nil {
		_ = w.Abort()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("rename model: %w", err)
	}
	return nil
}

func (w *atomicWriter) Abort() error {
	_ = w.file.Close()
	return os.Remove(w.tmpPath)
}
