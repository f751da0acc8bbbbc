package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestParseGeneration(t *testing.T) {
	valid := []struct {
		in   any
		want int64
	}{
		{55, 55},
		{int8(7), 7},
		{int16(300), 300},
		{int32(1700000000), 1700000000},
		{int64(1700000000), 1700000000},
		{uint(1), 1},
		{uint8(2), 2},
		{uint16(3), 3},
		{uint32(4), 4},
		{uint64(1700000000), 1700000000},
	}
	for _, tt := range valid {
		t.Run(fmt.Sprintf("%T(%v)", tt.in, tt.in), func(t *testing.T) {
			got, ok := ParseGeneration(tt.in)
			if !ok || got != tt.want {
				t.Errorf("ParseGeneration(%v) = (%d, %v), want (%d, true)", tt.in, got, ok, tt.want)
			}
		})
	}

	invalid := []any{
		nil,
		"",
		"55",
		0,
		-1,
		int64(-1700000000),
		1.5,
		float64(55),
		[]any{},
		map[string]any{},
		struct{}{},
		true,
		uint64(math.MaxUint64),
	}
	for _, in := range invalid {
		t.Run(fmt.Sprintf("absent %T(%v)", in, in), func(t *testing.T) {
			if got, ok := ParseGeneration(in); ok {
				t.Errorf("ParseGeneration(%v) = (%d, true), want absent", in, got)
			}
		})
	}
}

func TestVersionedKey(t *testing.T) {
	if got := VersionedKey("my_prefix_", 55, "foo"); got != "my_prefix_55_foo" {
		t.Errorf("VersionedKey() = %q, want my_prefix_55_foo", got)
	}
	if VersionedKey("p_", 1, "k") == VersionedKey("p_", 2, "k") {
		t.Error("keys of distinct generations must differ")
	}
}

func TestBackendKind(t *testing.T) {
	kinds := []BackendKind{
		BackendObjectCache,
		BackendOptions,
		BackendNetworkOptions,
		BackendTransients,
		BackendSiteTransients,
	}
	for _, k := range kinds {
		parsed, ok := ParseBackendKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseBackendKind(%q) = (%v, %v), want (%v, true)", k.String(), parsed, ok, k)
		}
	}

	if _, ok := ParseBackendKind("nope"); ok {
		t.Error("ParseBackendKind(nope) should fail")
	}
	if BackendKind(99).String() != "unknown" {
		t.Errorf("BackendKind(99).String() = %q, want unknown", BackendKind(99).String())
	}
	if BackendOptions.Generational() || BackendNetworkOptions.Generational() {
		t.Error("option backends carry no generation")
	}
	if !BackendObjectCache.Generational() || !BackendTransients.Generational() {
		t.Error("object cache and transients are generational")
	}
}

func TestTransientPrefixes(t *testing.T) {
	value, timeout := TransientPrefixes(SiteScope())
	if value != "_transient_" || timeout != "_transient_timeout_" {
		t.Errorf("site prefixes = %q, %q", value, timeout)
	}

	value, timeout = TransientPrefixes(NetworkScope(3))
	if value != "_site_transient_" || timeout != "_site_transient_timeout_" {
		t.Errorf("network prefixes = %q, %q", value, timeout)
	}

	if TransientGroupFor(SiteScope()) != "transient" || TransientGroupFor(NetworkScope(1)) != "site-transient" {
		t.Error("unexpected transient groups")
	}
}

func TestScope_String(t *testing.T) {
	if SiteScope().String() != "site" {
		t.Errorf("SiteScope().String() = %q", SiteScope().String())
	}
	if NetworkScope(12).String() != "network:12" {
		t.Errorf("NetworkScope(12).String() = %q", NetworkScope(12).String())
	}
}

func TestCacheEntry_IsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("no deadline never expires", func(t *testing.T) {
		e := &CacheEntry{Value: "v"}
		if e.IsExpired(now) {
			t.Error("entry without deadline expired")
		}
	})

	t.Run("deadline reached", func(t *testing.T) {
		e := &CacheEntry{Value: "v", ExpiresAt: now}
		if !e.IsExpired(now) {
			t.Error("entry at its deadline should be expired")
		}
	})

	t.Run("deadline ahead", func(t *testing.T) {
		e := &CacheEntry{Value: "v", ExpiresAt: now.Add(time.Second)}
		if e.IsExpired(now) {
			t.Error("entry before its deadline expired")
		}
	})
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	if o.Raw || !o.Autoload {
		t.Errorf("defaults = %+v, want Raw=false Autoload=true", o)
	}

	o = ApplyOptions(Raw(), WithoutAutoload())
	if !o.Raw || o.Autoload {
		t.Errorf("options = %+v, want Raw=true Autoload=false", o)
	}
}

func TestStoreError(t *testing.T) {
	err := NewStoreError("get", "k", "redis", ErrUnavailable)

	if !errors.Is(err, ErrUnavailable) {
		t.Error("StoreError should unwrap to its cause")
	}
	if err.Error() != "datastore get on redis [k]: datastore: store unavailable" {
		t.Errorf("Error() = %q", err.Error())
	}

	noKey := NewStoreError("ping", "", "postgres", ErrClosed)
	if noKey.Error() != "datastore ping on postgres: datastore: store closed" {
		t.Errorf("Error() = %q", noKey.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotFound, false},
		{ErrCircuitOpen, false},
		{ErrClosed, false},
		{ErrInvalidKey, false},
		{ErrRejected, false},
		{context.Canceled, false},
		{ErrUnavailable, true},
		{errors.New("connection reset"), true},
		{NewStoreError("set", "k", "redis", ErrCircuitOpen), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestHealthStatus(t *testing.T) {
	if Combine(HealthStatusHealthy, HealthStatusDegraded) != HealthStatusDegraded {
		t.Error("Combine should pick degraded")
	}
	if Combine() != HealthStatusHealthy {
		t.Error("Combine() should be healthy")
	}

	b, err := json.Marshal(HealthStatusUnhealthy)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"unhealthy"` {
		t.Errorf("json = %s, want \"unhealthy\"", b)
	}
}

func TestMetricsSnapshot_Total(t *testing.T) {
	s := &MetricsSnapshot{Backends: map[string]BackendCounters{
		"cache":     {Hits: 3, Misses: 1},
		"transient": {Hits: 1, Misses: 3, Invalidations: 2},
	}}

	total := s.Total()
	if total.Hits != 4 || total.Misses != 4 || total.Invalidations != 2 {
		t.Errorf("Total() = %+v", total)
	}
	if s.TotalHitRatio() != 0.5 {
		t.Errorf("TotalHitRatio() = %v, want 0.5", s.TotalHitRatio())
	}
}

func TestSecretString(t *testing.T) {
	s := NewSecretString("hunter2")
	if s.String() != "[REDACTED]" || s.Value() != "hunter2" {
		t.Errorf("SecretString = %q / %q", s.String(), s.Value())
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"[REDACTED]"` {
		t.Errorf("json = %s", b)
	}

	var back SecretString
	if err := json.Unmarshal([]byte(`"pw"`), &back); err != nil {
		t.Fatal(err)
	}
	if back.Value() != "pw" {
		t.Errorf("Value() = %q, want pw", back.Value())
	}
	if !NewSecretString("").IsEmpty() || NewSecretString("").String() != "" {
		t.Error("empty secret should print empty")
	}
}
