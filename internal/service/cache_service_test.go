package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeCacheRepo struct {
	mu       sync.Mutex
	entries  map[string]interface{}
	patterns []string
	getErr   error
	delErr   error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return f.getErr
	}
	value, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *int:
		*d = value.(int)
	case *string:
		*d = value.(string)
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	return nil
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	if f.delErr != nil {
		return 0, f.delErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	deleted := 0
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCacheRepo) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func TestViewKey(t *testing.T) {
	assert.Equal(t, "osms:view:/admin/dashboard", ViewKey("/admin/dashboard", ""))
	assert.Equal(t, "osms:view:/student/dashboard#u1", ViewKey("/student/dashboard", "u1"))
}

func TestCacheServiceInvalidatePaths(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, ViewKey("/admin/students", "page=1"), 1, 0))
	require.NoError(t, svc.Set(ctx, ViewKey("/admin/students", "page=2"), 2, 0))
	require.NoError(t, svc.Set(ctx, ViewKey("/admin/courses", ""), 3, 0))

	svc.InvalidatePaths(ctx, "/admin/students", " ")

	assert.Equal(t, []string{"osms:view:/admin/students*"}, repo.patterns)
	assert.Equal(t, []string{"osms:view:/admin/courses"}, repo.keys())
}

func TestCacheServiceInvalidateContinuesAfterFailure(t *testing.T) {
	repo := newFakeCacheRepo()
	repo.delErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	svc.InvalidatePaths(context.Background(), "/admin/students", "/admin/dashboard")

	assert.Len(t, repo.patterns, 2)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	hit, err := svc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	svc.InvalidatePaths(context.Background(), "/admin")
	assert.Empty(t, repo.patterns)
	assert.Empty(t, repo.keys())
}

func TestReadThrough(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	value, hit, err := readThrough(context.Background(), svc, "osms:view:/x", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, value)

	value, hit, err = readThrough(context.Background(), svc, "osms:view:/x", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, value)
	assert.Equal(t, 1, calls)
}

func TestReadThroughFallsBackOnCacheError(t *testing.T) {
	repo := newFakeCacheRepo()
	repo.getErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	value, hit, err := readThrough(context.Background(), svc, "k", 0, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", value)
}

func TestReadThroughPropagatesLoadError(t *testing.T) {
	svc := NewCacheService(newFakeCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	boom := errors.New("boom")

	_, _, err := readThrough(context.Background(), svc, "k", 0, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
