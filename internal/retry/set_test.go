package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleepRunner() *Runner {
	return NewRunner(DefaultPolicy(), WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
}

func succeed(v string) Task[string] {
	return func(context.Context) (string, error) { return v, nil }
}

func fail(msg string) Task[string] {
	return func(context.Context) (string, error) { return "", errors.New(msg) }
}

func TestRunSetFailsWhenMandatoryFails(t *testing.T) {
	t.Parallel()
	optional := []Task[string]{succeed("a"), succeed("b"), succeed("c")}
	res, err := RunSet(context.Background(), noSleepRunner(), fail("featured"), optional, 0)
	require.Error(t, err)
	assert.True(t, IsExhausted(err))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, res.Optional)
}

func TestRunSetDegradesOnOptionalFailures(t *testing.T) {
	t.Parallel()
	optional := []Task[string]{fail("s0"), succeed("s1"), fail("s2")}
	res, err := RunSet(context.Background(), noSleepRunner(), succeed("featured"), optional, 2)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Equal(t, "featured", res.Mandatory)
	require.Len(t, res.Optional, 1)
	assert.Equal(t, Indexed[string]{Index: 1, Value: "s1"}, res.Optional[0])
	assert.Equal(t, []int{0, 2}, res.FailedIndices())
}

func TestRunSetAllOptionalFailStillSucceeds(t *testing.T) {
	t.Parallel()
	optional := []Task[string]{fail("s0"), fail("s1")}
	res, err := RunSet(context.Background(), noSleepRunner(), succeed("featured"), optional, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Empty(t, res.Optional)
	assert.Len(t, res.Failures, 2)
}

func TestRunSetKeepsTaskOrder(t *testing.T) {
	t.Parallel()
	var optional []Task[string]
	for i := 0; i < 6; i++ {
		optional = append(optional, succeed(fmt.Sprintf("s%d", i)))
	}
	res, err := RunSet(context.Background(), noSleepRunner(), succeed("featured"), optional, 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	require.Len(t, res.Optional, 6)
	for i, item := range res.Optional {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, fmt.Sprintf("s%d", i), item.Value)
	}
}
