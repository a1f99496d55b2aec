package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	got := New().Now()
	require.Equal(t, time.UTC, got.Location())
	require.WithinDuration(t, time.Now().UTC(), got, time.Second)
}
