package gyro

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-labs/arcodom/logging"
)

type scriptedHeading struct {
	headings []float64
	err      error
}

func (s *scriptedHeading) CompassHeading(ctx context.Context, extra map[string]interface{}) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	h := s.headings[0]
	if len(s.headings) > 1 {
		s.headings = s.headings[1:]
	}
	return h, nil
}

func TestHeadingGyro(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	src := &scriptedHeading{headings: []float64{350, 10, 10, 300}}
	g := NewHeadingGyro("imu-1", src, logger)

	test.That(t, g.Name(), test.ShouldEqual, "imu-1")
	_, err := g.RotationDelta(ctx)
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)

	test.That(t, g.Calibrate(ctx), test.ShouldBeNil)
	test.That(t, g.IsCalibrated(), test.ShouldBeTrue)
	test.That(t, g.IsCalibrating(), test.ShouldBeFalse)

	// 350 -> 10 is a 20 degree clockwise turn across north.
	d, err := g.RotationDelta(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, -20*math.Pi/180)

	d, err = g.RotationDelta(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 0)

	// 10 -> 300 is 70 degrees counter-clockwise.
	d, err = g.RotationDelta(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 70*math.Pi/180)
}

func TestHeadingGyroCalibrationFailure(t *testing.T) {
	ctx := context.Background()
	src := &scriptedHeading{err: errors.New("i2c timeout")}
	g := NewHeadingGyro("imu-2", src, logging.NewTestLogger(t))

	err := g.Calibrate(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "i2c timeout")
	test.That(t, g.IsCalibrated(), test.ShouldBeFalse)
}

type fakeGyro struct{ headingGyro }

func TestFromDependencies(t *testing.T) {
	logger := logging.NewTestLogger(t)
	direct := &fakeGyro{}
	deps := map[string]interface{}{
		"direct":  direct,
		"compass": &scriptedHeading{headings: []float64{0}},
		"motor":   "not a sensor",
	}

	g, err := FromDependencies(deps, "direct", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g, test.ShouldEqual, direct)

	g, err = FromDependencies(deps, "compass", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Name(), test.ShouldEqual, "compass")

	_, err = FromDependencies(deps, "motor", logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromDependencies(deps, "missing", logger)
	test.That(t, err, test.ShouldNotBeNil)
}
