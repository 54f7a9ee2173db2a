// Package trackingwheel implements passive, unpowered wheels whose encoders measure the distance
// rolled at a fixed offset from the robot's tracking center.
package trackingwheel

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/viam-labs/arcodom/components/encoder"
	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/utils"
)

// A TrackingWheel reports signed distance travelled along its rolling direction.
type TrackingWheel interface {
	// Name identifies the wheel in diagnostics.
	Name() string

	// Offset is the signed perpendicular distance from the tracking center. It is fixed at
	// construction.
	Offset() float64

	// DistanceDelta returns the distance travelled since the last call made with update set.
	// With update false the reading is a peek and the next call sees the same starting point.
	DistanceDelta(ctx context.Context, update bool) (float64, error)

	// Reset zeroes the wheel. A non-nil error means the sensor failed to initialize.
	Reset(ctx context.Context) error
}

// Config is how you configure an encoder backed tracking wheel.
type Config struct {
	Name             string  `json:"name"`
	Encoder          string  `json:"encoder"`
	OffsetMM         float64 `json:"offset_mm"`
	WheelDiameterMM  float64 `json:"wheel_diameter_mm"`
	TicksPerRotation float64 `json:"ticks_per_rotation"`
	GearRatio        float64 `json:"gear_ratio,omitempty"`
}

// Validate ensures all parts of the config are valid and returns the encoder it depends on.
func (cfg *Config) Validate(path string) ([]string, error) {
	if cfg.Name == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if cfg.Encoder == "" {
		return nil, utils.NewConfigValidationFieldRequiredError(path, "encoder")
	}
	if cfg.WheelDiameterMM <= 0 {
		return nil, utils.NewConfigValidationError(path,
			errors.Errorf("wheel_diameter_mm must be positive, got %v", cfg.WheelDiameterMM))
	}
	if cfg.TicksPerRotation <= 0 {
		return nil, utils.NewConfigValidationError(path,
			errors.Errorf("ticks_per_rotation must be positive, got %v", cfg.TicksPerRotation))
	}
	if cfg.GearRatio < 0 {
		return nil, utils.NewConfigValidationError(path,
			errors.Errorf("gear_ratio cannot be negative, got %v", cfg.GearRatio))
	}
	return []string{cfg.Encoder}, nil
}

// DistancePerTick is how far the wheel rolls for one encoder tick.
func (cfg *Config) DistancePerTick() float64 {
	ratio := cfg.GearRatio
	if ratio == 0 {
		ratio = 1
	}
	return math.Pi * cfg.WheelDiameterMM * ratio / cfg.TicksPerRotation
}

type encoderWheel struct {
	name        string
	enc         encoder.Encoder
	offset      float64
	distPerTick float64
	logger      logging.Logger

	mu        sync.Mutex
	lastTicks float64
}

// New returns a tracking wheel reading the given encoder.
func New(enc encoder.Encoder, cfg Config, logger logging.Logger) (TrackingWheel, error) {
	if enc == nil {
		return nil, errors.Errorf("tracking wheel %q needs an encoder", cfg.Name)
	}
	if _, err := cfg.Validate(cfg.Name); err != nil {
		return nil, err
	}
	return &encoderWheel{
		name:        cfg.Name,
		enc:         enc,
		offset:      cfg.OffsetMM,
		distPerTick: cfg.DistancePerTick(),
		logger:      logger,
	}, nil
}

func (w *encoderWheel) Name() string {
	return w.name
}

func (w *encoderWheel) Offset() float64 {
	return w.offset
}

func (w *encoderWheel) Reset(ctx context.Context) error {
	if err := w.enc.Reset(ctx, 0, nil); err != nil {
		return errors.Wrapf(err, "resetting encoder of tracking wheel %q", w.name)
	}
	ticks, err := w.enc.TicksCount(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "reading encoder of tracking wheel %q", w.name)
	}

	w.mu.Lock()
	w.lastTicks = ticks
	w.mu.Unlock()
	w.logger.Debugw("tracking wheel reset", "name", w.name, "ticks", ticks)
	return nil
}

func (w *encoderWheel) DistanceDelta(ctx context.Context, update bool) (float64, error) {
	ticks, err := w.enc.TicksCount(ctx, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "reading encoder of tracking wheel %q", w.name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	delta := (ticks - w.lastTicks) * w.distPerTick
	if update {
		w.lastTicks = ticks
	}
	return delta, nil
}
