package main

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/viam-labs/arcodom/spatialmath"
)

// track records the true and estimated paths of a drive.
type track struct {
	truth    plotter.XYs
	estimate plotter.XYs
}

func newTrack(steps int) *track {
	return &track{
		truth:    make(plotter.XYs, 0, steps+1),
		estimate: make(plotter.XYs, 0, steps+1),
	}
}

func (tr *track) add(truth, estimate spatialmath.Pose) {
	tr.truth = append(tr.truth, plotter.XY{X: truth.X, Y: truth.Y})
	tr.estimate = append(tr.estimate, plotter.XY{X: estimate.X, Y: estimate.Y})
}

// save renders both paths into a PNG at path.
func (tr *track) save(path string) error {
	p := plot.New()
	p.Title.Text = "Arc odometry"
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"
	p.Add(plotter.NewGrid())

	truthLine, err := plotter.NewLine(tr.truth)
	if err != nil {
		return errors.Wrap(err, "plotting true path")
	}
	truthLine.Width = vg.Points(2)
	truthLine.Color = color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0xff}

	estimateLine, err := plotter.NewLine(tr.estimate)
	if err != nil {
		return errors.Wrap(err, "plotting estimated path")
	}
	estimateLine.Width = vg.Points(1)
	estimateLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	estimateLine.Color = color.RGBA{R: 0xdc, G: 0x39, B: 0x12, A: 0xff}

	p.Add(truthLine, estimateLine)
	p.Legend.Add("true", truthLine)
	p.Legend.Add("estimated", estimateLine)
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot to %q", path)
	}
	return nil
}
