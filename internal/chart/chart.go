// Package chart lays out a categorical line chart as SVG coordinates.
package chart

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNoLabels       = errors.New("chart has no x labels")
	ErrLengthMismatch = errors.New("series length does not match labels")
)

// Margin is the space between the viewport edge and the axes.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Layout fixes the viewport and axis sizes.
type Layout struct {
	Width, Height float64
	Margin        Margin
	YAxisWidth    float64
	XAxisHeight   float64
	TickCount     int
}

// DefaultLayout matches the analytics card: 800x300 with a narrow margin.
func DefaultLayout() Layout {
	return Layout{
		Width:       800,
		Height:      300,
		Margin:      Margin{Top: 5, Right: 30, Left: 20, Bottom: 5},
		YAxisWidth:  60,
		XAxisHeight: 30,
		TickCount:   5,
	}
}

// Series is one named line.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

type Point struct {
	X, Y  float64
	Value float64
	Label string
}

type Line struct {
	Name   string
	Color  string
	Points []Point
}

// Path renders the points in SVG polyline syntax.
func (l Line) Path() string {
	parts := make([]string, 0, len(l.Points))
	for _, p := range l.Points {
		parts = append(parts, fmtCoord(p.X)+","+fmtCoord(p.Y))
	}
	return strings.Join(parts, " ")
}

type Tick struct {
	Pos   float64
	Value float64
	Label string
}

// Chart is a fully positioned chart ready for a template.
type Chart struct {
	Width, Height float64
	Plot          Rect
	Lines         []Line
	YTicks        []Tick
	XTicks        []Tick
}

// Plot positions every series against shared x labels. The y domain
// starts at zero and ends on a rounded tick at or above the largest value.
// format renders tick labels; nil uses plain decimal formatting.
func Plot(labels []string, series []Series, layout Layout, format func(float64) string) (Chart, error) {
	if len(labels) == 0 {
		return Chart{}, ErrNoLabels
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return Chart{}, ErrLengthMismatch
		}
	}
	if format == nil {
		format = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	}
	if layout.TickCount < 2 {
		layout.TickCount = 2
	}

	plot := Rect{
		Left:   layout.Margin.Left + layout.YAxisWidth,
		Top:    layout.Margin.Top,
		Right:  layout.Width - layout.Margin.Right,
		Bottom: layout.Height - layout.Margin.Bottom - layout.XAxisHeight,
	}

	maxV := 0.0
	for _, s := range series {
		for _, v := range s.Values {
			if v > maxV && !math.IsInf(v, 1) && !math.IsNaN(v) {
				maxV = v
			}
		}
	}
	step, top := niceScale(maxV, layout.TickCount)

	// Out-of-range values sit on the axis edges; NaN sits on the baseline.
	y := func(v float64) float64 {
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		if v > top {
			v = top
		}
		return plot.Bottom - v/top*plot.Height()
	}
	x := func(i int) float64 {
		if len(labels) == 1 {
			return plot.Left + plot.Width()/2
		}
		return plot.Left + float64(i)*plot.Width()/float64(len(labels)-1)
	}

	c := Chart{Width: layout.Width, Height: layout.Height, Plot: plot}
	for i := 0; i < layout.TickCount; i++ {
		v := step * float64(i)
		c.YTicks = append(c.YTicks, Tick{Pos: y(v), Value: v, Label: format(v)})
	}
	for i, l := range labels {
		c.XTicks = append(c.XTicks, Tick{Pos: x(i), Label: l})
	}
	for _, s := range series {
		line := Line{Name: s.Name, Color: s.Color}
		for i, v := range s.Values {
			line.Points = append(line.Points, Point{X: x(i), Y: y(v), Value: v, Label: labels[i]})
		}
		c.Lines = append(c.Lines, line)
	}
	return c, nil
}

// niceScale picks a 1/2/2.5/5 x 10^n step so that ticks-1 steps cover maxV.
func niceScale(maxV float64, ticks int) (step, top float64) {
	intervals := float64(ticks - 1)
	if maxV <= 0 || math.IsNaN(maxV) {
		return 1 / intervals, 1
	}
	raw := maxV / intervals
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		step = m * mag
		if step*intervals >= maxV {
			break
		}
	}
	return step, step * intervals
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
