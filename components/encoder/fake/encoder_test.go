package fake

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"
)

func TestEncoder(t *testing.T) {
	ctx := context.Background()

	e := &Encoder{}

	t.Run("get and set position", func(t *testing.T) {
		pos, err := e.TicksCount(ctx, nil)
		test.That(t, pos, test.ShouldEqual, 0)
		test.That(t, err, test.ShouldBeNil)

		err = e.SetPosition(ctx, 1)
		test.That(t, err, test.ShouldBeNil)

		pos, err = e.TicksCount(ctx, nil)
		test.That(t, pos, test.ShouldEqual, 1)
		test.That(t, err, test.ShouldBeNil)

		e.AddTicks(2.5)
		pos, err = e.TicksCount(ctx, nil)
		test.That(t, pos, test.ShouldEqual, 3.5)
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("reset to offset", func(t *testing.T) {
		err := e.Reset(ctx, 4, nil)
		test.That(t, err, test.ShouldBeNil)

		pos, err := e.TicksCount(ctx, nil)
		test.That(t, pos, test.ShouldEqual, 4)
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("failing reset keeps position", func(t *testing.T) {
		e.SetResetError(errors.New("no response"))
		err := e.Reset(ctx, 0, nil)
		test.That(t, err, test.ShouldNotBeNil)

		pos, err := e.TicksCount(ctx, nil)
		test.That(t, pos, test.ShouldEqual, 4)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, e.Resets(), test.ShouldEqual, 2)

		e.SetResetError(nil)
		test.That(t, e.Reset(ctx, 0, nil), test.ShouldBeNil)
	})

	t.Run("set speed", func(t *testing.T) {
		err := e.SetSpeed(ctx, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, e.speed, test.ShouldEqual, 1)
	})

	t.Run("start default update rate", func(t *testing.T) {
		err := e.SetSpeed(ctx, 0)
		test.That(t, err, test.ShouldBeNil)

		cancelCtx, cancel := context.WithCancel(ctx)
		e.Start(cancelCtx)
		defer func() {
			cancel()
			e.Wait()
		}()

		e.mu.Lock()
		test.That(t, e.updateRate, test.ShouldEqual, 100)
		e.mu.Unlock()

		err = e.SetSpeed(ctx, 600)
		test.That(t, err, test.ShouldBeNil)

		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			pos, err := e.TicksCount(ctx, nil)
			test.That(tb, pos, test.ShouldBeGreaterThan, 0)
			test.That(tb, err, test.ShouldBeNil)
		})
	})
}
