// Package options implements types.OptionStore in memory and on Postgres.
package options

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/LavishGent/datastore/internal/config"
	"github.com/LavishGent/datastore/internal/types"
)

type memoryRow struct {
	value    []byte
	autoload bool
	seq      uint64
}

// Memory keeps one table per scope. Values go through the codec so a read
// never hands out memory a caller can still mutate, and so stored values
// look the same as they would coming back from Postgres.
type Memory struct {
	codec  types.Codec
	logger *slog.Logger

	mu     sync.RWMutex
	tables map[types.Scope]map[string]memoryRow
	seq    uint64

	closed atomic.Bool
}

// NewMemory returns an empty in-process option store.
func NewMemory(c types.Codec, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		codec:  c,
		logger: logger.With("component", "memory-options"),
		tables: make(map[types.Scope]map[string]memoryRow),
	}
}

func (m *Memory) Name() string { return config.OptionsMemory }

func (m *Memory) Get(ctx context.Context, scope types.Scope, name string) (any, bool, error) {
	if m.closed.Load() {
		return nil, false, types.ErrClosed
	}

	m.mu.RLock()
	row, ok := m.tables[scope][name]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	value, err := m.codec.Unmarshal(row.value)
	if err != nil {
		return nil, false, types.NewStoreError("get", name, m.Name(), err)
	}
	return value, true, nil
}

func (m *Memory) Set(ctx context.Context, scope types.Scope, name string, value any, autoload bool) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	data, err := m.codec.Marshal(value)
	if err != nil {
		return types.NewStoreError("set", name, m.Name(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.tables[scope]
	if !ok {
		table = make(map[string]memoryRow)
		m.tables[scope] = table
	}

	row, exists := table[name]
	if !exists {
		m.seq++
		row.seq = m.seq
	}
	row.value = data
	row.autoload = autoload
	table[name] = row
	return nil
}

func (m *Memory) Delete(ctx context.Context, scope types.Scope, name string) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.tables[scope]
	if _, ok := table[name]; !ok {
		return false, nil
	}
	delete(table, name)
	return true, nil
}

// Names lists the stored names of scope starting with prefix in insertion
// order.
func (m *Memory) Names(ctx context.Context, scope types.Scope, prefix string) ([]string, error) {
	if m.closed.Load() {
		return nil, types.ErrClosed
	}

	m.mu.RLock()
	type named struct {
		name string
		seq  uint64
	}
	var matches []named
	for name, row := range m.tables[scope] {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, named{name: name, seq: row.seq})
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })

	names := make([]string, len(matches))
	for i, n := range matches {
		names[i] = n.name
	}
	return names, nil
}

// Autoload reports the autoload flag of a stored option.
// A closed store reports no option.
func (m *Memory) Autoload(ctx context.Context, scope types.Scope, name string) (autoload, ok bool) {
	if m.closed.Load() {
		return false, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.tables[scope][name]
	return row.autoload, ok
}

func (m *Memory) Ping(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}

var _ types.OptionStore = (*Memory)(nil)
