// Package odometry tracks a robot's planar pose from tracking wheels and gyros by integrating
// each control tick's motion as a circular arc.
//
// An Engine is built over a caller owned Sensors set, calibrated once with Calibrate, and then
// advanced with Update on every control tick (directly, or from the loop started by Start).
// Heading change comes from the first source available, in order: the mean of all gyros, the
// first two horizontal wheels, the first two vertical wheels. The local displacement for the
// tick is computed on the arc implied by that heading change and rotated into the global frame
// at the tick's midpoint heading.
//
// Heading is counter-clockwise positive and never wrapped. At zero heading the robot faces +Y;
// lateral displacement is along +X.
package odometry

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-labs/arcodom/components/gyro"
	"github.com/viam-labs/arcodom/components/trackingwheel"
	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/spatialmath"
)

const (
	// DefaultCalibrationTimeout bounds how long Calibrate waits for gyros.
	DefaultCalibrationTimeout = 3000 * time.Millisecond
	// DefaultCalibrationInterval is how often Calibrate polls gyros.
	DefaultCalibrationInterval = 10 * time.Millisecond
)

var (
	// ErrInsufficientHeadingSensors is returned by Update when no gyro and no pair of wheels on
	// a single axis remain.
	ErrInsufficientHeadingSensors = errors.New("not enough sensors to calculate heading")
	// ErrNotCalibrated is returned by Update before Calibrate has run.
	ErrNotCalibrated = errors.New("odometry has not been calibrated")
	// ErrAlreadyStarted is returned by Start when the update loop is already running.
	ErrAlreadyStarted = errors.New("odometry update loop already started")
)

// State is the lifecycle state of an Engine.
type State int

const (
	// StateUncalibrated is the state of a new Engine.
	StateUncalibrated State = iota
	// StateActive is entered by Calibrate and never left.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUncalibrated:
		return "uncalibrated"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Sensors is the set of sensors an Engine reads. It belongs to the caller; the Engine keeps the
// pointer and Calibrate replaces the slices with the sensors that survived, so callers must
// expect them to shrink.
type Sensors struct {
	Verticals   []trackingwheel.TrackingWheel
	Horizontals []trackingwheel.TrackingWheel
	Gyros       []gyro.Gyro
}

// Options tunes an Engine. The zero value is usable.
type Options struct {
	// InitialPose is the pose before the first update.
	InitialPose spatialmath.Pose
	// CalibrationTimeout defaults to DefaultCalibrationTimeout.
	CalibrationTimeout time.Duration
	// CalibrationInterval defaults to DefaultCalibrationInterval.
	CalibrationInterval time.Duration
	// LegacyForwardDivisor averages the forward displacement over the number of horizontal
	// wheels instead of vertical wheels. It reproduces the output of older firmware bit for bit
	// and yields non-finite poses when there are no horizontal wheels. Leave it off otherwise.
	LegacyForwardDivisor bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Engine owns the current pose and advances it from sensor readings.
type Engine struct {
	sensors *Sensors
	opts    Options
	clock   clock.Clock
	logger  logging.Logger

	// opMu serializes Calibrate, Update and SetPose, and guards the fields below it.
	opMu       sync.Mutex
	pending    readings
	gyroDeltas []float64

	mu    sync.Mutex
	pose  spatialmath.Pose
	state State

	loopMu                  sync.Mutex
	cancelLoop              func()
	activeBackgroundWorkers sync.WaitGroup
}

// New returns an uncalibrated Engine over sensors. Wheels sharing an offset on the same axis are
// rejected since their heading estimate would divide by zero.
func New(sensors *Sensors, opts Options, logger logging.Logger) (*Engine, error) {
	if err := validateSensors(sensors); err != nil {
		return nil, err
	}
	if opts.CalibrationTimeout <= 0 {
		opts.CalibrationTimeout = DefaultCalibrationTimeout
	}
	if opts.CalibrationInterval <= 0 {
		opts.CalibrationInterval = DefaultCalibrationInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Engine{
		sensors:    sensors,
		opts:       opts,
		clock:      opts.Clock,
		logger:     logger,
		pending:    newReadings(sensors),
		gyroDeltas: make([]float64, 0, len(sensors.Gyros)),
		pose:       opts.InitialPose,
		state:      StateUncalibrated,
	}, nil
}

func validateSensors(sensors *Sensors) error {
	if sensors == nil {
		return errors.New("odometry needs a sensor set")
	}
	var errs error
	errs = multierr.Append(errs, validateAxis("vertical", sensors.Verticals))
	errs = multierr.Append(errs, validateAxis("horizontal", sensors.Horizontals))
	for i, g := range sensors.Gyros {
		if g == nil {
			errs = multierr.Append(errs, errors.Errorf("gyro %d is nil", i))
		}
	}
	return errs
}

func validateAxis(axis string, wheels []trackingwheel.TrackingWheel) error {
	var errs error
	seen := make(map[float64]string, len(wheels))
	for i, w := range wheels {
		if w == nil {
			errs = multierr.Append(errs, errors.Errorf("%s tracking wheel %d is nil", axis, i))
			continue
		}
		if other, ok := seen[w.Offset()]; ok {
			errs = multierr.Append(errs, errors.Errorf(
				"%s tracking wheels %q and %q share offset %v", axis, other, w.Name(), w.Offset()))
			continue
		}
		seen[w.Offset()] = w.Name()
	}
	return errs
}

// Pose returns a snapshot of the current pose.
func (e *Engine) Pose() spatialmath.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pose
}

// SetPose overwrites the current pose. It waits for an in-flight Update to finish.
func (e *Engine) SetPose(pose spatialmath.Pose) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose = pose
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Sensors returns the sensor set the Engine reads.
func (e *Engine) Sensors() *Sensors {
	return e.sensors
}

// Update reads every sensor once and advances the pose by one tick. On any failure the pose is
// left untouched, the failure is logged, and returned alongside the unchanged pose. Readings taken
// during a failed tick are kept and applied by the next successful one.
func (e *Engine) Update(ctx context.Context) (spatialmath.Pose, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	pose := e.Pose()
	if e.State() != StateActive {
		e.logger.Errorw("odometry update before calibration", "error", ErrNotCalibrated)
		return pose, ErrNotCalibrated
	}

	if err := e.readSensors(ctx); err != nil {
		e.logger.Errorw("odometry calculation failure, could not read sensors", "error", err)
		return pose, err
	}

	deltaTheta, err := e.estimateHeadingDelta()
	if err != nil {
		e.logger.Errorw("odometry calculation failure, could not determine heading change", "error", err)
		return pose, err
	}

	next := e.integrateStep(pose, deltaTheta)
	e.pending.clear()

	e.mu.Lock()
	e.pose = next
	e.mu.Unlock()
	return next, nil
}
