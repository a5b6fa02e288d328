package dailycache_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachastral/astro-daily/pkg/dailycache"
)

func TestKeyFor_Isolation(t *testing.T) {
	t.Run("Different dates produce different keys", func(t *testing.T) {
		k1 := dailycache.KeyFor("2026-08-29", "device-1", "tarot-daily")
		k2 := dailycache.KeyFor("2026-08-30", "device-1", "tarot-daily")
		assert.NotEqual(t, k1, k2)
	})

	t.Run("Different clients produce different keys", func(t *testing.T) {
		k1 := dailycache.KeyFor("2026-08-30", "device-1", "tarot-daily")
		k2 := dailycache.KeyFor("2026-08-30", "device-2", "tarot-daily")
		assert.NotEqual(t, k1, k2)
	})

	t.Run("Different kinds produce different keys", func(t *testing.T) {
		k1 := dailycache.KeyFor("2026-08-30", "", "horoscope")
		k2 := dailycache.KeyFor("2026-08-30", "", "horoscope-detailed")
		assert.NotEqual(t, k1, k2)
	})

	t.Run("Collective kinds omit the client component", func(t *testing.T) {
		key := dailycache.KeyFor("2026-08-30", "", "horoscope")
		assert.Equal(t, dailycache.Key("horoscope_2026-08-30"), key)
	})
}

func TestKeyFor_Sanitization(t *testing.T) {
	t.Run("Path-unsafe characters are stripped", func(t *testing.T) {
		key := dailycache.KeyFor("2026-08-30", "../../etc/passwd", "tarot-daily")
		assert.Equal(t, dailycache.Key("tarot-daily_2026-08-30_etcpasswd"), key)
	})

	t.Run("Long identifiers are truncated", func(t *testing.T) {
		key := dailycache.KeyFor("2026-08-30", strings.Repeat("a", 200), "tarot-daily")
		suffix := strings.TrimPrefix(string(key), "tarot-daily_2026-08-30_")
		assert.Len(t, suffix, 64)
	})

	t.Run("Fully unsafe identifier falls back to the placeholder", func(t *testing.T) {
		key := dailycache.KeyFor("2026-08-30", "!!!///***", "tarot-daily")
		assert.Equal(t, dailycache.Key("tarot-daily_2026-08-30_anon"), key)
	})

	t.Run("Hyphens survive", func(t *testing.T) {
		key := dailycache.KeyFor("2026-08-30", "my-device-42", "tarot-daily")
		assert.Equal(t, dailycache.Key("tarot-daily_2026-08-30_my-device-42"), key)
	})
}

func TestDeriveClientID(t *testing.T) {
	t.Run("Explicit id wins", func(t *testing.T) {
		id := dailycache.DeriveClientID("  device-7  ", "agent", "1.2.3.4")
		assert.Equal(t, "device-7", id)
	})

	t.Run("Explicit id is bounded", func(t *testing.T) {
		id := dailycache.DeriveClientID(strings.Repeat("x", 300), "agent", "1.2.3.4")
		assert.Len(t, id, 128)
	})

	t.Run("Fallback is stable for identical signals", func(t *testing.T) {
		id1 := dailycache.DeriveClientID("", "Mozilla/5.0", "10.0.0.1")
		id2 := dailycache.DeriveClientID("", "Mozilla/5.0", "10.0.0.1")
		require.Equal(t, id1, id2)
		assert.Len(t, id1, 32)
	})

	t.Run("Fallback differs across signals", func(t *testing.T) {
		id1 := dailycache.DeriveClientID("", "Mozilla/5.0", "10.0.0.1")
		id2 := dailycache.DeriveClientID("", "Mozilla/5.0", "10.0.0.2")
		assert.NotEqual(t, id1, id2)
	})
}

func TestDayKey(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	day := dailycache.DayKey(time.Date(2026, 8, 30, 23, 59, 0, 0, madrid))
	assert.Equal(t, "2026-08-30", day)
}
