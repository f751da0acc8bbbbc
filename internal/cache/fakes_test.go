package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

var errBackend = errors.New("backend down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type setCall struct {
	name  string
	value any
	ttl   time.Duration
}

// fakeObjectCache records writes and can be told to fail.
type fakeObjectCache struct {
	mu      sync.Mutex
	entries map[string]any
	sets    []setCall
	fail    error
}

func newFakeObjectCache() *fakeObjectCache {
	return &fakeObjectCache{entries: make(map[string]any)}
}

func (c *fakeObjectCache) Name() string { return "fake" }

func (c *fakeObjectCache) Get(_ context.Context, key, group string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, false, c.fail
	}
	v, ok := c.entries[group+"/"+key]
	return v, ok, nil
}

func (c *fakeObjectCache) Set(_ context.Context, key, group string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.entries[group+"/"+key] = value
	c.sets = append(c.sets, setCall{name: group + "/" + key, value: value, ttl: ttl})
	return nil
}

func (c *fakeObjectCache) Delete(_ context.Context, key, group string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return false, c.fail
	}
	_, ok := c.entries[group+"/"+key]
	delete(c.entries, group+"/"+key)
	return ok, nil
}

func (c *fakeObjectCache) Exists(ctx context.Context, key, group string) (bool, error) {
	_, ok, err := c.Get(ctx, key, group)
	return ok, err
}

func (c *fakeObjectCache) External() bool { return false }
func (c *fakeObjectCache) Close() error   { return nil }

func (c *fakeObjectCache) setsOf(name string) []setCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []setCall
	for _, s := range c.sets {
		if s.name == name {
			out = append(out, s)
		}
	}
	return out
}

type optionRow struct {
	value    any
	autoload bool
}

// fakeOptionStore keeps names in insertion order per scope.
type fakeOptionStore struct {
	mu         sync.Mutex
	rows       map[types.Scope]map[string]optionRow
	order      map[types.Scope][]string
	namesCalls []string
	fail       error
}

func newFakeOptionStore() *fakeOptionStore {
	return &fakeOptionStore{
		rows:  make(map[types.Scope]map[string]optionRow),
		order: make(map[types.Scope][]string),
	}
}

func (s *fakeOptionStore) Name() string { return "fake" }

func (s *fakeOptionStore) Get(_ context.Context, scope types.Scope, name string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, false, s.fail
	}
	row, ok := s.rows[scope][name]
	return row.value, ok, nil
}

func (s *fakeOptionStore) Set(_ context.Context, scope types.Scope, name string, value any, autoload bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.rows[scope] == nil {
		s.rows[scope] = make(map[string]optionRow)
	}
	if _, ok := s.rows[scope][name]; !ok {
		s.order[scope] = append(s.order[scope], name)
	}
	s.rows[scope][name] = optionRow{value: value, autoload: autoload}
	return nil
}

func (s *fakeOptionStore) Delete(_ context.Context, scope types.Scope, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	if _, ok := s.rows[scope][name]; !ok {
		return false, nil
	}
	delete(s.rows[scope], name)
	order := s.order[scope][:0]
	for _, n := range s.order[scope] {
		if n != name {
			order = append(order, n)
		}
	}
	s.order[scope] = order
	return true, nil
}

func (s *fakeOptionStore) Names(_ context.Context, scope types.Scope, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namesCalls = append(s.namesCalls, scope.String()+"|"+prefix)
	if s.fail != nil {
		return nil, s.fail
	}
	var out []string
	for _, n := range s.order[scope] {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeOptionStore) Ping(context.Context) error { return nil }
func (s *fakeOptionStore) Close() error               { return nil }

func (s *fakeOptionStore) row(scope types.Scope, name string) (optionRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[scope][name]
	return row, ok
}

// fakeTransientStore records every call by stored name.
type fakeTransientStore struct {
	mu      sync.Mutex
	entries map[string]any
	sets    []setCall
	deletes []string
	scopes  []types.Scope
	fail    error
}

func newFakeTransientStore() *fakeTransientStore {
	return &fakeTransientStore{entries: make(map[string]any)}
}

func (s *fakeTransientStore) Get(_ context.Context, scope types.Scope, name string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	if s.fail != nil {
		return nil, false, s.fail
	}
	v, ok := s.entries[name]
	return v, ok, nil
}

func (s *fakeTransientStore) Set(_ context.Context, scope types.Scope, name string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	if s.fail != nil {
		return s.fail
	}
	s.entries[name] = value
	s.sets = append(s.sets, setCall{name: name, value: value, ttl: ttl})
	return nil
}

func (s *fakeTransientStore) Delete(_ context.Context, scope types.Scope, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	if s.fail != nil {
		return false, s.fail
	}
	s.deletes = append(s.deletes, name)
	_, ok := s.entries[name]
	delete(s.entries, name)
	return ok, nil
}

func (s *fakeTransientStore) setsOf(name string) []setCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []setCall
	for _, c := range s.sets {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

type fakeEnv struct {
	external  bool
	multisite bool
	networkID int64
}

func (e fakeEnv) UsingExternalObjectCache() bool { return e.external }
func (e fakeEnv) IsMultisite() bool              { return e.multisite }
func (e fakeEnv) CurrentNetworkID() int64        { return e.networkID }

// recordingMetrics counts recorder calls per kind.
type recordingMetrics struct {
	mu            sync.Mutex
	hits          int
	misses        int
	sets          int
	deletes       int
	errors        []string
	invalidations []int64
}

func (m *recordingMetrics) RecordHit(string, string, time.Duration) {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordMiss(string, string, time.Duration) {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordSet(string, string, time.Duration) {
	m.mu.Lock()
	m.sets++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordDelete(string, string, time.Duration) {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordError(backend, op string, _ error) {
	m.mu.Lock()
	m.errors = append(m.errors, backend+":"+op)
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordInvalidation(_ string, _ string, generation int64, _ int) {
	m.mu.Lock()
	m.invalidations = append(m.invalidations, generation)
	m.mu.Unlock()
}
