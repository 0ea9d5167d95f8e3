package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"VCPSentinel/internal/model"
)

type fileState struct {
	Symbols   map[string]model.SymbolState `json:"symbols"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// FileStore keeps every symbol state in one JSON file.
type FileStore struct {
	mu       sync.Mutex
	state    fileState
	filePath string
}

// NewFileStore loads filePath, starting empty if it does not exist.
func NewFileStore(filePath string) (*FileStore, error) {
	st, err := loadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", filePath, err)
	}
	return &FileStore{state: st, filePath: filePath}, nil
}

func loadFile(filePath string) (fileState, error) {
	st := fileState{Symbols: map[string]model.SymbolState{}}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	if st.Symbols == nil {
		st.Symbols = map[string]model.SymbolState{}
	}
	return st, nil
}

func (f *FileStore) Load(_ context.Context, symbol string) (model.SymbolState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.state.Symbols[symbol]
	return s, ok, nil
}

func (f *FileStore) Save(_ context.Context, s model.SymbolState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.UpdatedAt = time.Now()
	f.state.Symbols[s.Symbol] = s
	return f.save()
}

func (f *FileStore) All(_ context.Context) ([]model.SymbolState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.SymbolState, 0, len(f.state.Symbols))
	for _, s := range f.state.Symbols {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (f *FileStore) Close() error { return nil }

// save writes through a temp file so a crash never leaves a torn file.
func (f *FileStore) save() error {
	f.state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(f.state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := f.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, f.filePath)
}
