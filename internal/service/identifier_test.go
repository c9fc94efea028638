package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(values ...int) randomIntN {
	i := 0
	return func(int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestIdentifierFormats(t *testing.T) {
	assert.Equal(t, "UU202400042", enrollmentNumberFormat.format(2024, 42))
	assert.Equal(t, "UU202499999", enrollmentNumberFormat.format(2024, 99999))
	assert.Equal(t, "FAC20240007", employeeIDFormat.format(2024, 7))
}

func TestAllocateIdentifierRetriesOnCollision(t *testing.T) {
	taken := map[string]bool{"UU202400042": true}
	id, err := allocateIdentifier(context.Background(), enrollmentNumberFormat, 2024, sequence(42, 43), func(_ context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "UU202400043", id)
}

func TestAllocateIdentifierGivesUp(t *testing.T) {
	calls := 0
	_, err := allocateIdentifier(context.Background(), employeeIDFormat, 2024, sequence(1), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, errIdentifierExhausted)
	assert.Equal(t, maxIdentifierAttempts, calls)
}

func TestAllocateIdentifierPropagatesLookupErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := allocateIdentifier(context.Background(), enrollmentNumberFormat, 2024, nil, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDefaultRandomWithinSpace(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := defaultRandom(enrollmentNumberFormat.space)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, enrollmentNumberFormat.space)
	}
}
