package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRoundtrip(t *testing.T) {
	// 10:30 UTC is 13:30 in Nairobi (UTC+3, no DST).
	utc := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "20240315133000", FormatTime(utc))

	parsed, err := ParseTime("20240315133000")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(utc))
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	_, err := ParseTime("not-a-timestamp")
	assert.Error(t, err)
}

func TestExcerptCaps(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, Excerpt(long), MaxBodyExcerpt)
	assert.Equal(t, "short", Excerpt([]byte("short")))
}
