package odometry

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/viam-labs/arcodom/components/gyro"
	fakegyro "github.com/viam-labs/arcodom/components/gyro/fake"
	"github.com/viam-labs/arcodom/components/trackingwheel"
	fakewheel "github.com/viam-labs/arcodom/components/trackingwheel/fake"
	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/spatialmath"
)

func wheels(ws ...*fakewheel.TrackingWheel) []trackingwheel.TrackingWheel {
	out := make([]trackingwheel.TrackingWheel, 0, len(ws))
	for _, w := range ws {
		out = append(out, w)
	}
	return out
}

func gyros(gs ...*fakegyro.Gyro) []gyro.Gyro {
	out := make([]gyro.Gyro, 0, len(gs))
	for _, g := range gs {
		out = append(out, g)
	}
	return out
}

func newTestEngine(t *testing.T, sensors *Sensors, opts Options) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	logger, logs := logging.NewObservedTestLogger(t)
	e, err := New(sensors, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	return e, logs
}

// newActiveEngine returns an engine calibrated without touching gyros.
func newActiveEngine(t *testing.T, sensors *Sensors, opts Options) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	e, logs := newTestEngine(t, sensors, opts)
	e.Calibrate(context.Background(), false)
	test.That(t, e.State(), test.ShouldEqual, StateActive)
	return e, logs
}

// pollClock is a mock clock that reports every After call, so a test can advance time only while
// the poller is waiting on it.
type pollClock struct {
	*clock.Mock
	waiting chan struct{}
}

func newPollClock() *pollClock {
	return &pollClock{Mock: clock.NewMock(), waiting: make(chan struct{})}
}

func (c *pollClock) After(d time.Duration) <-chan time.Time {
	ch := c.Mock.After(d)
	c.waiting <- struct{}{}
	return ch
}

// calibrateWithMock runs Calibrate, advancing clk by one poll interval each time Calibrate waits
// on it, until Calibrate returns.
func calibrateWithMock(t *testing.T, e *Engine, clk *pollClock, calibrateGyros bool) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Calibrate(context.Background(), calibrateGyros)
	}()
	for {
		select {
		case <-done:
			return
		case <-clk.waiting:
			clk.Add(e.opts.CalibrationInterval)
		}
	}
}

func TestNew(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("nil sensors", func(t *testing.T) {
		_, err := New(nil, Options{}, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("duplicate offsets on an axis", func(t *testing.T) {
		sensors := &Sensors{
			Verticals: wheels(
				fakewheel.NewTrackingWheel("left", -5),
				fakewheel.NewTrackingWheel("right", 5),
				fakewheel.NewTrackingWheel("middle", -5),
			),
		}
		_, err := New(sensors, Options{}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `vertical tracking wheels "left" and "middle" share offset -5`)
	})

	t.Run("same offset on different axes is fine", func(t *testing.T) {
		sensors := &Sensors{
			Verticals:   wheels(fakewheel.NewTrackingWheel("v", 0)),
			Horizontals: wheels(fakewheel.NewTrackingWheel("h", 0)),
		}
		e, err := New(sensors, Options{}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, e.Sensors(), test.ShouldEqual, sensors)
		test.That(t, e.State(), test.ShouldEqual, StateUncalibrated)
	})

	t.Run("nil entries", func(t *testing.T) {
		sensors := &Sensors{
			Verticals: []trackingwheel.TrackingWheel{nil},
			Gyros:     []gyro.Gyro{nil},
		}
		_, err := New(sensors, Options{}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "vertical tracking wheel 0 is nil")
		test.That(t, err.Error(), test.ShouldContainSubstring, "gyro 0 is nil")
	})

	t.Run("defaults", func(t *testing.T) {
		e, err := New(&Sensors{}, Options{InitialPose: spatialmath.NewPose(1, 2, 3)}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, e.opts.CalibrationTimeout, test.ShouldEqual, 3*time.Second)
		test.That(t, e.opts.CalibrationInterval, test.ShouldEqual, 10*time.Millisecond)
		test.That(t, e.clock, test.ShouldNotBeNil)
		test.That(t, e.Pose(), test.ShouldResemble, spatialmath.NewPose(1, 2, 3))
	})
}

func TestUpdateBeforeCalibrate(t *testing.T) {
	v := fakewheel.NewTrackingWheel("v", 0)
	e, logs := newTestEngine(t, &Sensors{Verticals: wheels(v), Gyros: gyros(fakegyro.NewCalibratedGyro("g"))}, Options{})
	v.Roll(10)

	pose, err := e.Update(context.Background())
	test.That(t, errors.Is(err, ErrNotCalibrated), test.ShouldBeTrue)
	test.That(t, pose, test.ShouldResemble, spatialmath.NewZeroPose())
	test.That(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len(), test.ShouldEqual, 1)
	test.That(t, v.Reads(), test.ShouldEqual, 0)
}

func TestUpdateWithoutHeadingSensors(t *testing.T) {
	start := spatialmath.NewPose(4, -2, 0.7)
	v := fakewheel.NewTrackingWheel("v", 0)
	h := fakewheel.NewTrackingWheel("h", 0)
	e, logs := newActiveEngine(t, &Sensors{Verticals: wheels(v), Horizontals: wheels(h)}, Options{InitialPose: start})
	v.Roll(10)
	h.Roll(3)

	var (
		pose spatialmath.Pose
		err  error
	)
	test.That(t, func() { pose, err = e.Update(context.Background()) }, test.ShouldNotPanic)
	test.That(t, errors.Is(err, ErrInsufficientHeadingSensors), test.ShouldBeTrue)
	test.That(t, pose, test.ShouldResemble, start)
	test.That(t, e.Pose(), test.ShouldResemble, start)

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	test.That(t, errs, test.ShouldHaveLength, 1)
	test.That(t, errs[0].Message, test.ShouldContainSubstring, "could not determine heading change")
}

func TestUpdateReadFailureLeavesPose(t *testing.T) {
	g := fakegyro.NewCalibratedGyro("g")
	v := fakewheel.NewTrackingWheel("v", 0)
	e, _ := newActiveEngine(t, &Sensors{Verticals: wheels(v), Gyros: gyros(g)}, Options{})

	v.Roll(10)
	v.SetReadError(errors.New("encoder unplugged"))
	pose, err := e.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "encoder unplugged")
	test.That(t, pose, test.ShouldResemble, spatialmath.NewZeroPose())

	g.SetReadError(errors.New("gyro unplugged"))
	_, err = e.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `reading gyro "g"`)
	test.That(t, e.Pose(), test.ShouldResemble, spatialmath.NewZeroPose())
}

func TestUpdateAfterReadFailureKeepsTravel(t *testing.T) {
	v1 := fakewheel.NewTrackingWheel("v1", -5)
	v2 := fakewheel.NewTrackingWheel("v2", 5)
	e, logs := newActiveEngine(t, &Sensors{
		Verticals: wheels(v1, v2),
		Gyros:     gyros(fakegyro.NewCalibratedGyro("g")),
	}, Options{})

	v1.Roll(10)
	v2.Roll(10)
	v2.SetReadError(errors.New("encoder unplugged"))
	_, err := e.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, e.Pose(), test.ShouldResemble, spatialmath.NewZeroPose())
	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	test.That(t, errs, test.ShouldHaveLength, 1)
	test.That(t, errs[0].Message, test.ShouldContainSubstring, "could not read sensors")

	v2.SetReadError(nil)
	v1.Roll(2)
	v2.Roll(2)
	pose, err := e.Update(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.AlmostEqual(spatialmath.NewPose(0, 12, 0), poseEpsilon), test.ShouldBeTrue)

	// nothing is applied twice
	pose, err = e.Update(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.AlmostEqual(spatialmath.NewPose(0, 12, 0), poseEpsilon), test.ShouldBeTrue)
}

func TestUpdateAfterReadFailureKeepsRotation(t *testing.T) {
	g1 := fakegyro.NewCalibratedGyro("g1")
	g2 := fakegyro.NewCalibratedGyro("g2")
	e, _ := newActiveEngine(t, &Sensors{Gyros: gyros(g1, g2)}, Options{})

	g1.Rotate(0.4)
	g2.Rotate(0.4)
	g2.SetReadError(errors.New("gyro unplugged"))
	_, err := e.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, e.Pose().Theta, test.ShouldEqual, 0)

	g2.SetReadError(nil)
	pose, err := e.Update(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Theta, test.ShouldAlmostEqual, 0.4)
}

func TestCalibrateDropsPendingReadings(t *testing.T) {
	v := fakewheel.NewTrackingWheel("v", 0)
	g := fakegyro.NewCalibratedGyro("g")
	e, _ := newActiveEngine(t, &Sensors{Verticals: wheels(v), Gyros: gyros(g)}, Options{})

	v.Roll(10)
	g.SetReadError(errors.New("gyro unplugged"))
	_, err := e.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)

	g.SetReadError(nil)
	e.Calibrate(context.Background(), false)
	pose, err := e.Update(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, spatialmath.NewZeroPose())
}

func TestSetPose(t *testing.T) {
	v := fakewheel.NewTrackingWheel("v", 0)
	e, _ := newActiveEngine(t, &Sensors{Verticals: wheels(v), Gyros: gyros(fakegyro.NewCalibratedGyro("g"))}, Options{})

	e.SetPose(spatialmath.NewPose(100, 50, 0))
	v.Roll(10)
	pose, err := e.Update(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.AlmostEqual(spatialmath.NewPose(100, 60, 0), 1e-12), test.ShouldBeTrue)
	test.That(t, e.Pose(), test.ShouldResemble, pose)
}

func TestStateString(t *testing.T) {
	test.That(t, StateUncalibrated.String(), test.ShouldEqual, "uncalibrated")
	test.That(t, StateActive.String(), test.ShouldEqual, "active")
	test.That(t, State(7).String(), test.ShouldEqual, "unknown")
}
