package connectivity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errProbe = errors.New("probe failed")

func newTestProber(ttl time.Duration, results ...error) (*Prober, *[]string) {
	p := New(ttl, zap.NewNop().Sugar())

	calls := &[]string{}
	probes := make([]probe, 0, len(results))

	for i, res := range results {
		name := string(rune('a' + i))
		err := res

		probes = append(probes, probe{
			name: name,
			run: func(context.Context) error {
				*calls = append(*calls, name)
				return err
			},
		})
	}

	p.probes = probes

	return p, calls
}

func TestIsOnlineShortCircuitsOnFirstSuccess(t *testing.T) {
	p, calls := newTestProber(time.Minute, nil, errProbe, errProbe)

	assert.True(t, p.IsOnline(context.Background()))
	assert.Equal(t, []string{"a"}, *calls)
}

func TestIsOnlineTriesAllMethodsBeforeDeclaringOffline(t *testing.T) {
	p, calls := newTestProber(time.Minute, errProbe, errProbe, errProbe)

	assert.False(t, p.IsOnline(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, *calls)
}

func TestIsOnlineSecondMethodRescues(t *testing.T) {
	p, calls := newTestProber(time.Minute, errProbe, nil, errProbe)

	assert.True(t, p.IsOnline(context.Background()))
	assert.Equal(t, []string{"a", "b"}, *calls)
}

func TestIsOnlineCachesWithinTTL(t *testing.T) {
	p, calls := newTestProber(30*time.Second, nil)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	require.True(t, p.IsOnline(context.Background()))
	require.Len(t, *calls, 1)

	// Within the TTL the cached answer is reused.
	now = now.Add(10 * time.Second)
	assert.True(t, p.IsOnline(context.Background()))
	assert.Len(t, *calls, 1)

	// Past the TTL the probes run again.
	now = now.Add(30 * time.Second)
	assert.True(t, p.IsOnline(context.Background()))
	assert.Len(t, *calls, 2)
}

func TestRefreshBypassesTTL(t *testing.T) {
	p, calls := newTestProber(time.Hour, nil)

	require.True(t, p.IsOnline(context.Background()))
	require.Len(t, *calls, 1)

	assert.True(t, p.Refresh(context.Background()))
	assert.Len(t, *calls, 2)
}

func TestStatusBreakdown(t *testing.T) {
	p, _ := newTestProber(time.Minute, errProbe, nil)

	require.True(t, p.IsOnline(context.Background()))

	breakdown := p.Status()
	require.Len(t, breakdown, 2)

	assert.Equal(t, "a", breakdown[0].Method)
	assert.False(t, breakdown[0].Reachable)
	assert.Equal(t, errProbe.Error(), breakdown[0].Err)

	assert.Equal(t, "b", breakdown[1].Method)
	assert.True(t, breakdown[1].Reachable)
	assert.Empty(t, breakdown[1].Err)
}
