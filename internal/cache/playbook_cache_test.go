package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	data     map[string]string
	getErr   error
	setErr   error
	getCalls []string
	setCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.getCalls = append(s.getCalls, key)
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.setCalls = append(s.setCalls, key)
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func newTestCache(store Store) PlaybookCache {
	return NewPlaybookCache(store, time.Hour, zap.NewNop())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mathematics", "mathematics"},
		{"Social Studies", "social_studies"},
		{"  Hindi-Medium ", "hindi_medium"},
		{"water cycle", "water_cycle"},
		{"", "general"},
		{"   ", "general"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{"Mathematics", "Social Studies", "", "any", "general", "hindi_medium", "Water-Cycle "}
	for _, s := range samples {
		once := Normalize(s)
		require.Equal(t, once, Normalize(once))
	}
}

func TestPrimaryKey(t *testing.T) {
	kc := KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"}
	require.Equal(t, "playbook:mathematics:5:fractions:english", PrimaryKey(kc))

	empty := KeyContext{}
	require.Equal(t, "playbook:general:any:general:general", PrimaryKey(empty))
}

func TestLookupKeysOrderAndDedupe(t *testing.T) {
	tests := []struct {
		name string
		kc   KeyContext
		want []string
	}{
		{
			name: "fully concrete context tries four keys",
			kc:   KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"},
			want: []string{
				"playbook:mathematics:5:fractions:english",
				"playbook:mathematics:any:fractions:english",
				"playbook:mathematics:5:general:english",
				"playbook:mathematics:any:general:english",
			},
		},
		{
			name: "missing grade collapses grade variants",
			kc:   KeyContext{Subject: "Mathematics", Topic: "Fractions", Language: "English"},
			want: []string{
				"playbook:mathematics:any:fractions:english",
				"playbook:mathematics:any:general:english",
			},
		},
		{
			name: "missing topic collapses topic variants",
			kc:   KeyContext{Subject: "Science", Grade: "7", Language: "English"},
			want: []string{
				"playbook:science:7:general:english",
				"playbook:science:any:general:english",
			},
		},
		{
			name: "empty context tries a single key",
			kc:   KeyContext{Language: "English"},
			want: []string{"playbook:general:any:general:english"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, LookupKeys(tt.kc))
		})
	}
}

func TestLookupExactHit(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)
	ctx := context.Background()

	kc := KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"}
	require.True(t, c.Store(ctx, kc, &CachedPlaybook{Text: "playbook body text"}))

	got := c.Lookup(ctx, kc)
	require.NotNil(t, got)
	require.Equal(t, "playbook body text", got.Text)
	require.False(t, got.CachedAt.IsZero())

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(0), stats.SemanticMatches)
	require.Equal(t, int64(0), stats.Misses)
}

func TestLookupFallbackHit(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)
	ctx := context.Background()

	stored := KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"}
	require.True(t, c.Store(ctx, stored, &CachedPlaybook{Text: "fractions playbook"}))

	// Same subject and topic, different grade: served via the grade-wildcarded key.
	query := KeyContext{Subject: "Mathematics", Grade: "7", Topic: "Fractions", Language: "English"}
	got := c.Lookup(ctx, query)
	require.NotNil(t, got)
	require.Equal(t, "fractions playbook", got.Text)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.SemanticMatches)
}

func TestLookupMiss(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)

	got := c.Lookup(context.Background(), KeyContext{Subject: "Science", Grade: "3", Topic: "Plants", Language: "English"})
	require.Nil(t, got)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, int64(0), stats.Hits)
	require.Len(t, store.getCalls, 4)
}

func TestLookupStoreErrorDegradesToMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c := newTestCache(store)

	got := c.Lookup(context.Background(), KeyContext{Subject: "Science"})
	require.Nil(t, got)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Errors)
	require.Equal(t, int64(0), stats.Misses)
}

func TestLookupCorruptEntryDegradesToMiss(t *testing.T) {
	store := newFakeStore()
	store.data["playbook:science:any:general:general"] = "{not json"
	c := newTestCache(store)

	got := c.Lookup(context.Background(), KeyContext{Subject: "Science"})
	require.Nil(t, got)
	require.Equal(t, int64(1), c.Stats().Errors)
}

func TestStoreWritesBroadenedKey(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)

	kc := KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"}
	require.True(t, c.Store(context.Background(), kc, &CachedPlaybook{Text: "body"}))

	require.Contains(t, store.data, "playbook:mathematics:5:fractions:english")
	require.Contains(t, store.data, "playbook:mathematics:any:fractions:english")
	require.Equal(t,
		store.data["playbook:mathematics:5:fractions:english"],
		store.data["playbook:mathematics:any:fractions:english"])
}

func TestStoreDoesNotOverwriteBroadenedKey(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)
	ctx := context.Background()

	first := KeyContext{Subject: "Mathematics", Grade: "5", Topic: "Fractions", Language: "English"}
	require.True(t, c.Store(ctx, first, &CachedPlaybook{Text: "grade five version"}))
	broadBefore := store.data["playbook:mathematics:any:fractions:english"]

	second := KeyContext{Subject: "Mathematics", Grade: "8", Topic: "Fractions", Language: "English"}
	require.True(t, c.Store(ctx, second, &CachedPlaybook{Text: "grade eight version"}))

	require.Equal(t, broadBefore, store.data["playbook:mathematics:any:fractions:english"])
	require.Contains(t, store.data["playbook:mathematics:8:fractions:english"], "grade eight version")
}

func TestStoreGeneralTopicSkipsBroadenedKey(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(store)

	kc := KeyContext{Subject: "Mathematics", Grade: "5", Language: "English"}
	require.True(t, c.Store(context.Background(), kc, &CachedPlaybook{Text: "body"}))

	require.Len(t, store.setCalls, 1)
	require.Contains(t, store.data, "playbook:mathematics:5:general:english")
}

func TestStoreErrorReturnsFalse(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("connection refused")
	c := newTestCache(store)

	ok := c.Store(context.Background(), KeyContext{Subject: "Science"}, &CachedPlaybook{Text: "body"})
	require.False(t, ok)
	require.Equal(t, int64(1), c.Stats().Errors)
}

func TestDisabledCache(t *testing.T) {
	c := NewPlaybookCache(nil, time.Hour, zap.NewNop())
	ctx := context.Background()

	require.Nil(t, c.Lookup(ctx, KeyContext{Subject: "Science"}))
	require.False(t, c.Store(ctx, KeyContext{Subject: "Science"}, &CachedPlaybook{Text: "body"}))

	stats := c.Stats()
	require.False(t, stats.Enabled)
	require.Zero(t, stats.Hits)
	require.Zero(t, stats.Misses)
}
