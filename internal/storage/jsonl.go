package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"nablaScope/internal/model"
)

// JsonlStorage appends records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutBlockChanges appends one line per block. Blocks without changes are skipped.
func (s *JsonlStorage) PutBlockChanges(ctx context.Context, changes []model.BlockChanges) error {
	records := make([]interface{}, 0, len(changes))
	for _, change := range changes {
		if len(change.Changes) == 0 {
			continue
		}
		records = append(records, change)
	}
	return s.appendLines(records)
}

// PutBlocks appends one line per raw block.
func (s *JsonlStorage) PutBlocks(ctx context.Context, blocks []model.Block) error {
	records := make([]interface{}, 0, len(blocks))
	for _, block := range blocks {
		records = append(records, block)
	}
	return s.appendLines(records)
}

// PutDecodeErrors appends one line per failed block.
func (s *JsonlStorage) PutDecodeErrors(ctx context.Context, errs []model.DecodeError) error {
	records := make([]interface{}, 0, len(errs))
	for _, e := range errs {
		records = append(records, e)
	}
	return s.appendLines(records)
}

// LoadComponents reads the component registry written by InsertComponents.
// A missing file is an empty registry.
func (s *JsonlStorage) LoadComponents(ctx context.Context) ([]model.Component, error) {
	var components []model.Component
	err := scanLines(s.path, func(lineNo int, line []byte) error {
		var component model.Component
		if err := json.Unmarshal(line, &component); err != nil {
			return fmt.Errorf("parse component at line %d: %w", lineNo, err)
		}
		components = append(components, component)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return components, nil
}

// InsertComponents appends one line per component. Duplicate ids are resolved
// on load, where the first line wins.
func (s *JsonlStorage) InsertComponents(ctx context.Context, components []model.Component) error {
	records := make([]interface{}, 0, len(components))
	for _, component := range components {
		records = append(records, component)
	}
	return s.appendLines(records)
}

func (s *JsonlStorage) appendLines(records []interface{}) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ReadBlocks streams raw blocks from a JSONL archive in file order. Blank
// lines are ignored; a malformed line stops the scan.
func ReadBlocks(path string, fn func(model.Block) error) error {
	return scanLines(path, func(lineNo int, line []byte) error {
		var block model.Block
		if err := json.Unmarshal(line, &block); err != nil {
			return fmt.Errorf("parse block at line %d: %w", lineNo, err)
		}
		return fn(block)
	})
}

func scanLines(path string, fn func(lineNo int, line []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
