package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"unstakePool/internal/model"
	"unstakePool/internal/retry"
)

// JsonlStorage writes operation results to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutResultBatch appends a batch of results as JSON lines. Appending is not
// idempotent, so once the file is open every failure is permanent: a retry
// could repeat lines that already reached the file.
func (s *JsonlStorage) PutResultBatch(_ context.Context, results []model.OperationResult) error {
	if len(results) == 0 {
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
	for _, result := range results {
		line, err := json.Marshal(result)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal result %d: %w", result.Seq, err))
		}
		if _, err := writer.Write(line); err != nil {
			return retry.Permanent(fmt.Errorf("write result: %w", err))
		}
		if err := writer.WriteByte('\n'); err != nil {
			return retry.Permanent(fmt.Errorf("write newline: %w", err))
		}
	}

	if err := writer.Flush(); err != nil {
		return retry.Permanent(fmt.Errorf("flush output: %w", err))
	}

	return nil
}
