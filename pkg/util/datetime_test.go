package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToISO8601Str(t *testing.T) {
	in := time.Date(2026, 10, 18, 19, 30, 5, 0, time.FixedZone("MYT", 8*3600))
	assert.Equal(t, "2026-10-18T19:30:05+08:00", TimeToISO8601Str(in))

	assert.Equal(t, "2026-10-18T11:30:05Z", TimeToISO8601Str(in.UTC()))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = LoadLocation("Nowhere/Special")
	assert.Error(t, err)
}
