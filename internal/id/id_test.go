package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	first := New(now)
	second := New(now)

	assert.Len(t, first, 26)
	assert.Less(t, first, second, "ids minted in the same millisecond must stay ordered")

	parsed, err := ulid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ulid.Time(parsed.Time()).UnixMilli())
}
