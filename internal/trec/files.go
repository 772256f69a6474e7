package trec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
)

// CreateRunFile truncates path (creating parent directories) and returns a
// run writer over it.
func CreateRunFile(path, tag string) (*RunWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return NewRunWriter(f, tag), nil
}

// LoadCandidates reads a run file's doc ids per query with the given cutoff.
func LoadCandidates(path string, cutoff int) (*Candidates, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRun(f, path, cutoff)
}

// LoadRun reads a full run file.
func LoadRun(path string) (*Run, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f, path)
}

// LoadJudgments reads a judgment file in either variant.
func LoadJudgments(path string) ([]Judgment, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJudgments(f, path)
}

// SaveJudgments writes judgments to path in the persisted variant.
func SaveJudgments(path string, js []Judgment) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := WriteJudgments(f, js); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadCollection reads a JSONL collection.
func LoadCollection(path string) ([]Document, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCollection(f, path)
}

// SaveCollection writes a JSONL collection to path.
func SaveCollection(path string, docs []Document) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := WriteCollection(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.MissingFileError(path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
