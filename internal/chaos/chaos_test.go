package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseProfile(t *testing.T) {
	fail, lo, hi, err := ParseProfile("fail-pct=30, delay=50-250")
	require.NoError(t, err)
	assert.Equal(t, 30, fail)
	assert.Equal(t, 50, lo)
	assert.Equal(t, 250, hi)

	_, _, _, err = ParseProfile("delay=250-50")
	assert.Error(t, err)

	_, _, _, err = ParseProfile("fail-pct=lots")
	assert.Error(t, err)
}

func TestMaybeFail_Deterministic(t *testing.T) {
	run := func() []bool {
		c := New(&Config{Enabled: true, FailPct: 50, Seed: 9}, zap.NewNop())
		out := make([]bool, 20)
		for i := range out {
			out[i] = c.MaybeFail(ComponentSink, "write") != nil
		}
		return out
	}

	a, b := run(), run()
	assert.Equal(t, a, b, "same seed gives the same failures")
	assert.Contains(t, a, true)
	assert.Contains(t, a, false)
}

func TestEnabledFor(t *testing.T) {
	c := New(&Config{Enabled: true, Target: ComponentSink, FailPct: 100}, zap.NewNop())
	assert.True(t, c.EnabledFor(ComponentSink))
	assert.False(t, c.EnabledFor("kafka"))
	assert.NoError(t, c.MaybeFail("kafka", "produce"))
	assert.ErrorIs(t, c.MaybeFail(ComponentSink, "write"), ErrInjected)

	off := New(&Config{FailPct: 100}, zap.NewNop())
	assert.NoError(t, off.MaybeFail(ComponentSink, "write"))
}

func TestMaybeDelay_RespectsContext(t *testing.T) {
	c := New(&Config{Enabled: true, Profile: "delay=5000-5000"}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.MaybeDelay(ctx, ComponentSink, "write")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
