// Package transients implements types.TransientStore on top of the object
// cache and the option store.
package transients

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/LavishGent/datastore/internal/types"
)

// Store keeps transients in the object cache when that cache is shared
// between processes. Otherwise each transient is an option, with a second
// option holding its unix deadline when it expires. Network transients of a
// single-site install are options of the site table.
type Store struct {
	cache   types.ObjectCache
	options types.OptionStore
	env     types.Environment
	clock   types.Clock
	logger  *slog.Logger
}

// New returns a transient store over cache and options.
func New(cache types.ObjectCache, options types.OptionStore, env types.Environment, clock types.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = types.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cache:   cache,
		options: options,
		env:     env,
		clock:   clock,
		logger:  logger.With("component", "transients"),
	}
}

// cacheKey separates the networks sharing one object cache.
func cacheKey(scope types.Scope, name string) string {
	if scope.Network {
		return strconv.FormatInt(scope.NetworkID, 10) + ":" + name
	}
	return name
}

// Get returns the transient name of scope. Expired entries are deleted
// and reported as missing.
func (s *Store) Get(ctx context.Context, scope types.Scope, name string) (any, bool, error) {
	if s.env.UsingExternalObjectCache() {
		return s.cache.Get(ctx, cacheKey(scope, name), types.TransientGroupFor(scope))
	}

	table := scope.Table(s.env.IsMultisite())
	valuePrefix, timeoutPrefix := types.TransientPrefixes(scope)
	valueName := valuePrefix + name
	timeoutName := timeoutPrefix + name

	raw, ok, err := s.options.Get(ctx, table, timeoutName)
	if err != nil {
		return nil, false, err
	}
	if ok {
		deadline, valid := types.ParseGeneration(raw)
		if !valid || deadline < s.clock.Now().Unix() {
			s.logger.Debug("transient expired", "name", name, "scope", scope.String())
			if _, err := s.options.Delete(ctx, table, valueName); err != nil {
				return nil, false, err
			}
			if _, err := s.options.Delete(ctx, table, timeoutName); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
	}

	return s.options.Get(ctx, table, valueName)
}

// Set writes the value and, for a positive ttl, its deadline. A zero ttl
// removes any deadline left by an earlier write.
func (s *Store) Set(ctx context.Context, scope types.Scope, name string, value any, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if s.env.UsingExternalObjectCache() {
		return s.cache.Set(ctx, cacheKey(scope, name), types.TransientGroupFor(scope), value, ttl)
	}

	table := scope.Table(s.env.IsMultisite())
	valuePrefix, timeoutPrefix := types.TransientPrefixes(scope)
	timeoutName := timeoutPrefix + name

	if ttl == 0 {
		if _, err := s.options.Delete(ctx, table, timeoutName); err != nil {
			return err
		}
		return s.options.Set(ctx, table, valuePrefix+name, value, true)
	}

	deadline := s.clock.Now().Add(ttl).Unix()
	if err := s.options.Set(ctx, table, timeoutName, deadline, false); err != nil {
		return err
	}
	return s.options.Set(ctx, table, valuePrefix+name, value, false)
}

// Delete removes the transient name of scope and its timeout.
func (s *Store) Delete(ctx context.Context, scope types.Scope, name string) (bool, error) {
	if s.env.UsingExternalObjectCache() {
		return s.cache.Delete(ctx, cacheKey(scope, name), types.TransientGroupFor(scope))
	}

	table := scope.Table(s.env.IsMultisite())
	valuePrefix, timeoutPrefix := types.TransientPrefixes(scope)
	deleted, err := s.options.Delete(ctx, table, valuePrefix+name)
	if err != nil || !deleted {
		return false, err
	}
	if _, err := s.options.Delete(ctx, table, timeoutPrefix+name); err != nil {
		return true, err
	}
	return true, nil
}

var _ types.TransientStore = (*Store)(nil)
