package main

import (
	"errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/gopomo/states"
)

// plotFrequencies saves a bar chart of the stationary state
// frequencies and the expected frequencies in the second population.
// The format is defined by the file extension.
func plotFrequencies(fn string, codec *states.Codec, stationary, expected []float64) error {
	n := codec.NStates()
	if len(stationary) != n || len(expected) != n {
		return errors.New("frequency vectors do not match the number of states")
	}

	p := plot.New()
	p.Title.Text = "PoMo state frequencies"
	p.Y.Label.Text = "Frequency"

	w := vg.Points(6)
	series := []struct {
		name string
		v    []float64
	}{
		{"stationary", stationary},
		{"expected", expected},
	}
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(s.v), w)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(2*i-1) * w / 2
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}
	p.Legend.Top = true

	names := make([]string, n)
	for st := range names {
		names[st] = codec.Name(st)
	}
	p.NominalX(names...)

	width := vg.Length(n) * 3 * w
	if width < 4*vg.Inch {
		width = 4 * vg.Inch
	}
	return p.Save(width, 4*vg.Inch, fn)
}
