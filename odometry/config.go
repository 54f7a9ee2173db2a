package odometry

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/viam-labs/arcodom/components/encoder"
	"github.com/viam-labs/arcodom/components/gyro"
	"github.com/viam-labs/arcodom/components/trackingwheel"
	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/spatialmath"
	"github.com/viam-labs/arcodom/utils"
)

// Config is how you configure arc odometry.
type Config struct {
	VerticalWheels       []trackingwheel.Config `json:"vertical_wheels,omitempty"`
	HorizontalWheels     []trackingwheel.Config `json:"horizontal_wheels,omitempty"`
	Gyros                []string               `json:"gyros,omitempty"`
	CalibrateGyros       bool                   `json:"calibrate_gyros,omitempty"`
	CalibrationTimeoutMS int                    `json:"calibration_timeout_ms,omitempty"`
	CalibrationPollMS    int                    `json:"calibration_poll_ms,omitempty"`
	UpdateIntervalMS     int                    `json:"update_interval_ms,omitempty"`
	LegacyForwardDivisor bool                   `json:"legacy_forward_divisor,omitempty"`
	InitialPose          *spatialmath.Pose      `json:"initial_pose,omitempty"`
}

// Validate ensures all parts of the config are valid and returns the names of the encoders and
// gyros it depends on.
func (cfg *Config) Validate(path string) ([]string, error) {
	var deps []string
	var errs error

	validateWheels := func(field string, wheels []trackingwheel.Config) {
		offsets := make(map[float64]string, len(wheels))
		for i := range wheels {
			wheelPath := fmt.Sprintf("%s.%s.%d", path, field, i)
			wheelDeps, err := wheels[i].Validate(wheelPath)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if other, ok := offsets[wheels[i].OffsetMM]; ok {
				errs = multierr.Append(errs, utils.NewConfigValidationError(wheelPath,
					errors.Errorf("offset_mm %v already used by %q", wheels[i].OffsetMM, other)))
				continue
			}
			offsets[wheels[i].OffsetMM] = wheels[i].Name
			deps = append(deps, wheelDeps...)
		}
	}
	validateWheels("vertical_wheels", cfg.VerticalWheels)
	validateWheels("horizontal_wheels", cfg.HorizontalWheels)

	for i, name := range cfg.Gyros {
		if name == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(
				fmt.Sprintf("%s.gyros.%d", path, i), "name"))
			continue
		}
		deps = append(deps, name)
	}

	if len(cfg.Gyros) == 0 && len(cfg.HorizontalWheels) < 2 && len(cfg.VerticalWheels) < 2 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("need at least one gyro or two tracking wheels on one axis to track heading")))
	}
	if cfg.CalibrationTimeoutMS < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("calibration_timeout_ms cannot be negative")))
	}
	if cfg.CalibrationPollMS < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("calibration_poll_ms cannot be negative")))
	}
	if cfg.UpdateIntervalMS < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("update_interval_ms cannot be negative")))
	}

	if errs != nil {
		return nil, errs
	}
	return deps, nil
}

// UpdateInterval is the configured control tick, 10ms when unset.
func (cfg *Config) UpdateInterval() time.Duration {
	if cfg.UpdateIntervalMS == 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(cfg.UpdateIntervalMS) * time.Millisecond
}

// Options converts the config into engine options.
func (cfg *Config) Options(clk clock.Clock) Options {
	opts := Options{
		CalibrationTimeout:   time.Duration(cfg.CalibrationTimeoutMS) * time.Millisecond,
		CalibrationInterval:  time.Duration(cfg.CalibrationPollMS) * time.Millisecond,
		LegacyForwardDivisor: cfg.LegacyForwardDivisor,
		Clock:                clk,
	}
	if cfg.InitialPose != nil {
		opts.InitialPose = *cfg.InitialPose
	}
	return opts
}

// NewFromDependencies builds the sensor set described by cfg out of deps, which maps names to
// encoders and gyros (or compass heading sources), and returns an uncalibrated Engine over it.
func NewFromDependencies(
	deps map[string]interface{},
	cfg Config,
	clk clock.Clock,
	logger logging.Logger,
) (*Engine, error) {
	if _, err := cfg.Validate("odometry"); err != nil {
		return nil, err
	}

	sensors := &Sensors{}
	buildWheels := func(configs []trackingwheel.Config) ([]trackingwheel.TrackingWheel, error) {
		wheels := make([]trackingwheel.TrackingWheel, 0, len(configs))
		for _, wc := range configs {
			enc, err := encoder.FromDependencies(deps, wc.Encoder)
			if err != nil {
				return nil, errors.Wrapf(err, "tracking wheel %q", wc.Name)
			}
			w, err := trackingwheel.New(enc, wc, logger.Sublogger(wc.Name))
			if err != nil {
				return nil, err
			}
			wheels = append(wheels, w)
		}
		return wheels, nil
	}

	var err error
	if sensors.Verticals, err = buildWheels(cfg.VerticalWheels); err != nil {
		return nil, err
	}
	if sensors.Horizontals, err = buildWheels(cfg.HorizontalWheels); err != nil {
		return nil, err
	}
	for _, name := range cfg.Gyros {
		g, err := gyro.FromDependencies(deps, name, logger.Sublogger(name))
		if err != nil {
			return nil, err
		}
		sensors.Gyros = append(sensors.Gyros, g)
	}

	return New(sensors, cfg.Options(clk), logger)
}
