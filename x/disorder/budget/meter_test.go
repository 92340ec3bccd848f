package budget

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxanic/disorder/x/disorder/types"
)

func TestMeter(t *testing.T) {
	m := NewMeter(1000)
	require.Equal(t, uint64(1000), m.Limit())

	m.Consume(400, "a")
	m.Require(600, "b")
	require.Equal(t, uint64(400), m.Used())
	require.Equal(t, uint64(600), m.Remaining())
}

func TestGuard(t *testing.T) {
	t.Run("success reports usage", func(t *testing.T) {
		used, err := Guard(100, func(m *Meter) error {
			m.Consume(60, "work")
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, uint64(60), used)
	})

	t.Run("fn error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		used, err := Guard(100, func(m *Meter) error {
			m.Consume(10, "work")
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, uint64(10), used)
	})

	t.Run("overrun aborts", func(t *testing.T) {
		reached := false
		used, err := Guard(100, func(m *Meter) error {
			m.Consume(60, "first")
			m.Consume(60, "second")
			reached = true
			return nil
		})
		require.ErrorIs(t, err, types.ErrComputeExhausted)
		require.Contains(t, err.Error(), "second")
		require.False(t, reached)
		require.Equal(t, uint64(100), used)
	})

	t.Run("exact limit is allowed", func(t *testing.T) {
		used, err := Guard(100, func(m *Meter) error {
			m.Consume(100, "all")
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, uint64(100), used)
	})

	t.Run("require aborts before charging", func(t *testing.T) {
		used, err := Guard(100, func(m *Meter) error {
			m.Require(101, "precheck")
			m.Consume(1, "never")
			return nil
		})
		require.ErrorIs(t, err, types.ErrComputeExhausted)
		require.Contains(t, err.Error(), "precheck")
		require.Zero(t, used)
	})

	t.Run("overflow aborts", func(t *testing.T) {
		_, err := Guard(math.MaxUint64, func(m *Meter) error {
			m.Consume(math.MaxUint64-1, "big")
			m.Consume(2, "wrap")
			return nil
		})
		require.ErrorIs(t, err, types.ErrComputeExhausted)
	})

	t.Run("unrelated panics propagate", func(t *testing.T) {
		require.PanicsWithValue(t, "unrelated", func() {
			_, _ = Guard(100, func(*Meter) error { panic("unrelated") })
		})
	})
}
