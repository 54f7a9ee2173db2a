package fake

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestTrackingWheel(t *testing.T) {
	ctx := context.Background()
	w := NewTrackingWheel("w", 3)
	test.That(t, w.Name(), test.ShouldEqual, "w")
	test.That(t, w.Offset(), test.ShouldEqual, 3.)

	w.Roll(2)
	w.Roll(0.5)
	d, err := w.DistanceDelta(ctx, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 2.5)

	d, err = w.DistanceDelta(ctx, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 2.5)

	d, err = w.DistanceDelta(ctx, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 0)
	test.That(t, w.Reads(), test.ShouldEqual, 3)

	w.SetReadError(errors.New("unplugged"))
	_, err = w.DistanceDelta(ctx, true)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, w.Reset(ctx), test.ShouldBeNil)
	w.SetResetError(errors.New("bad port"))
	test.That(t, w.Reset(ctx), test.ShouldNotBeNil)
	test.That(t, w.Resets(), test.ShouldEqual, 2)
}
