// Package main drives a simulated robot around and prints how far odometry drifts from the truth.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	fakegyro "github.com/viam-labs/arcodom/components/gyro/fake"
	"github.com/viam-labs/arcodom/components/trackingwheel"
	"github.com/viam-labs/arcodom/config"
	"github.com/viam-labs/arcodom/internal/sim"
	"github.com/viam-labs/arcodom/logging"
	"github.com/viam-labs/arcodom/odometry"
	"github.com/viam-labs/arcodom/spatialmath"
)

const (
	flagConfig     = "config"
	flagSteps      = "steps"
	flagVelocity   = "velocity"
	flagTurnRate   = "turn-rate"
	flagInterval   = "interval"
	flagReportEach = "report-every"
	flagGyros      = "gyros"
	flagDebug      = "debug"
	flagPlot       = "plot"
	flagLogFile    = "log-file"

	odometryType = "odometry"
	gyroType     = "gyro"
	encoderType  = "encoder"
)

func main() {
	app := &cli.App{
		Name:  "arcsim",
		Usage: "run arc odometry against a simulated robot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "JSON config describing the encoders, gyros and odometry; a three wheel robot is used when unset",
			},
			&cli.IntFlag{
				Name:  flagSteps,
				Value: 1000,
				Usage: "number of control ticks to simulate",
			},
			&cli.Float64Flag{
				Name:  flagVelocity,
				Value: 300,
				Usage: "forward velocity in mm/s",
			},
			&cli.Float64Flag{
				Name:  flagTurnRate,
				Value: 0.5,
				Usage: "turn rate in rad/s, counter-clockwise positive",
			},
			&cli.DurationFlag{
				Name:  flagInterval,
				Usage: "control tick; defaults to the configured update interval",
			},
			&cli.IntFlag{
				Name:  flagReportEach,
				Value: 100,
				Usage: "print a row every this many ticks",
			},
			&cli.IntFlag{
				Name:  flagGyros,
				Usage: "number of gyros on the default robot",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagPlot,
				Usage: "write a PNG of the true and estimated paths to this file",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to this file",
			},
		},
		Action: func(c *cli.Context) error {
			logger := logging.NewLogger("arcsim")
			if path := c.String(flagLogFile); path != "" {
				var closer io.Closer
				logger, closer = logging.NewFileLogger("arcsim", path)
				defer func() {
					//nolint:errcheck
					closer.Close()
				}()
			}
			if c.Bool(flagDebug) {
				logger.SetLevel(zapcore.DebugLevel)
			}
			defer func() {
				//nolint:errcheck
				logger.Sync()
			}()

			robot, odomCfg, err := setup(c.Context, c.String(flagConfig), c.Int(flagGyros), logger)
			if err != nil {
				return err
			}
			interval := c.Duration(flagInterval)
			if interval == 0 {
				interval = odomCfg.UpdateInterval()
			}
			return run(c.Context, c.App.Writer, robot, odomCfg, drive{
				steps:       c.Int(flagSteps),
				velocity:    c.Float64(flagVelocity),
				turnRate:    c.Float64(flagTurnRate),
				interval:    interval,
				reportEvery: c.Int(flagReportEach),
				plotPath:    c.String(flagPlot),
			}, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type drive struct {
	steps       int
	velocity    float64
	turnRate    float64
	interval    time.Duration
	reportEvery int
	plotPath    string
}

// setup builds the simulated robot and the odometry config that reads it.
func setup(ctx context.Context, path string, gyros int, logger logging.Logger) (*sim.Robot, odometry.Config, error) {
	if path == "" {
		names := make([]string, 0, gyros)
		for i := 0; i < gyros; i++ {
			names = append(names, fmt.Sprintf("imu-%d", i))
		}
		return sim.NewDifferentialRobot(spatialmath.NewZeroPose(), sim.DifferentialLayout{
			TrackWidthMM:     300,
			WheelDiameterMM:  60,
			TicksPerRotation: 8192,
			Gyros:            names,
		})
	}

	cfg, err := config.Read(ctx, path, logger)
	if err != nil {
		return nil, odometry.Config{}, err
	}
	return robotFromConfig(cfg)
}

func robotFromConfig(cfg *config.Config) (*sim.Robot, odometry.Config, error) {
	odoms := cfg.ComponentsOfType(odometryType)
	if len(odoms) != 1 {
		return nil, odometry.Config{}, errors.Errorf("expected exactly one %s component, found %d", odometryType, len(odoms))
	}
	var odomCfg odometry.Config
	if err := config.TransformAttributeMapToStruct(&odomCfg, odoms[0].Attributes); err != nil {
		return nil, odometry.Config{}, errors.Wrapf(err, "component %q", odoms[0].Name)
	}
	if _, err := odomCfg.Validate(odoms[0].Name); err != nil {
		return nil, odometry.Config{}, err
	}

	start := spatialmath.NewZeroPose()
	if odomCfg.InitialPose != nil {
		start = *odomCfg.InitialPose
	}
	robot := sim.NewRobot(start)

	addWheels := func(axis sim.Axis, wheels []trackingwheel.Config) error {
		for _, wc := range wheels {
			if err := expectType(cfg, wc.Encoder, encoderType); err != nil {
				return err
			}
			if _, err := robot.AddWheel(axis, wc); err != nil {
				return err
			}
		}
		return nil
	}
	if err := addWheels(sim.Vertical, odomCfg.VerticalWheels); err != nil {
		return nil, odometry.Config{}, err
	}
	if err := addWheels(sim.Horizontal, odomCfg.HorizontalWheels); err != nil {
		return nil, odometry.Config{}, err
	}

	for _, name := range odomCfg.Gyros {
		if err := expectType(cfg, name, gyroType); err != nil {
			return nil, odometry.Config{}, err
		}
		comp := cfg.FindComponent(name)
		calibration := time.Duration(comp.Attributes.Int("calibration_ms", 0)) * time.Millisecond
		if comp.Attributes.Bool("never_calibrates", false) {
			calibration = fakegyro.NeverCalibrates
		}
		if err := robot.AddGyro(fakegyro.NewGyro(name, nil, calibration)); err != nil {
			return nil, odometry.Config{}, err
		}
	}
	return robot, odomCfg, nil
}

func expectType(cfg *config.Config, name, typ string) error {
	comp := cfg.FindComponent(name)
	if comp == nil {
		return errors.Errorf("no component named %q in config", name)
	}
	if comp.Type != typ {
		return errors.Errorf("component %q is a %s, expected a %s", name, comp.Type, typ)
	}
	return nil
}

// run calibrates odometry over robot, drives it, and writes a table comparing the estimated
// pose with the true one.
func run(
	ctx context.Context,
	out io.Writer,
	robot *sim.Robot,
	odomCfg odometry.Config,
	d drive,
	logger logging.Logger,
) error {
	engine, err := odometry.NewFromDependencies(robot.Dependencies(), odomCfg, nil, logger.Sublogger(odometryType))
	if err != nil {
		return err
	}
	engine.Calibrate(ctx, odomCfg.CalibrateGyros)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Step", "True Pose", "Estimated Pose", "Position Error (mm)", "Heading Error (rad)"})
	appendRow := func(step int) {
		truth, estimate := robot.Pose(), engine.Pose()
		t.AppendRow(table.Row{
			step,
			truth.String(),
			estimate.String(),
			fmt.Sprintf("%.6f", truth.Distance(estimate)),
			fmt.Sprintf("%.6f", estimate.Theta-truth.Theta),
		})
	}

	var tr *track
	if d.plotPath != "" {
		tr = newTrack(d.steps)
		tr.add(robot.Pose(), engine.Pose())
	}

	appendRow(0)
	for step := 1; step <= d.steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		robot.Drive(d.velocity, d.turnRate, d.interval)
		if _, err := engine.Update(ctx); err != nil {
			return errors.Wrapf(err, "step %d", step)
		}
		if tr != nil {
			tr.add(robot.Pose(), engine.Pose())
		}
		if d.reportEvery > 0 && step%d.reportEvery == 0 && step != d.steps {
			appendRow(step)
		}
	}
	if d.steps > 0 {
		appendRow(d.steps)
	}
	t.Render()

	if tr != nil {
		if err := tr.save(d.plotPath); err != nil {
			return err
		}
		logger.Infow("wrote path plot", "path", d.plotPath)
	}
	return nil
}
