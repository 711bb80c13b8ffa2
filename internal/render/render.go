package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
	"adhocnet/internal/network"
)

var ErrNoData = errors.New("nothing to plot")

var (
	areaColor   = color.RGBA{B: 255, A: 255}
	hubColor    = color.RGBA{G: 160, A: 255}
	sensorColor = color.RGBA{R: 255, A: 255}
	relayColor  = color.RGBA{G: 160, A: 255}
	edgeColor   = color.Black
)

const (
	circleSegments = 64
	imageWidth     = 8 * vg.Inch
	imageHeight    = 8 * vg.Inch
)

// ImageSaver renders generation snapshots of the fittest network.
type ImageSaver struct{}

func (ImageSaver) SaveNetworkImage(net *network.Network, title, path string) error {
	return SaveNetworkImage(net, title, path)
}

// SaveNetworkImage draws interest areas, sensors (red), relays (green) and
// edges to path. The file format follows the extension.
func SaveNetworkImage(net *network.Network, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	if err := addAreas(p, net.Areas()); err != nil {
		return err
	}

	g := net.Graph()
	for _, e := range g.Edges() {
		a, _ := g.Vertex(e.A)
		b, _ := g.Vertex(e.B)
		line, err := plotter.NewLine(plotter.XYs{{X: a.Location.X, Y: a.Location.Y}, {X: b.Location.X, Y: b.Location.Y}})
		if err != nil {
			return fmt.Errorf("edge %s-%s: %w", e.A, e.B, err)
		}
		line.LineStyle.Color = edgeColor
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
	}

	var sensors, relays plotter.XYs
	for _, v := range g.Vertices() {
		xy := plotter.XY{X: v.Location.X, Y: v.Location.Y}
		if v.IsRelay {
			relays = append(relays, xy)
		} else {
			sensors = append(sensors, xy)
		}
	}
	if err := addScatter(p, "sensors", sensors, sensorColor); err != nil {
		return err
	}
	if err := addScatter(p, "relays", relays, relayColor); err != nil {
		return err
	}
	return save(p, path)
}

func SaveAreasImage(areas []*model.InterestArea, title, path string) error {
	if len(areas) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = title
	if err := addAreas(p, areas); err != nil {
		return err
	}
	return save(p, path)
}

// SaveStatisticsPlot scatters points under the given name, e.g. best fitness
// per generation or largest component per removed vertex.
func SaveStatisticsPlot(name string, points []geometry.Point, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, name)
	}
	p := plot.New()
	p.Title.Text = name
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	if err := addScatter(p, "", xys, sensorColor); err != nil {
		return err
	}
	return save(p, path)
}

func addAreas(p *plot.Plot, areas []*model.InterestArea) error {
	labels := plotter.XYLabels{}
	for _, area := range areas {
		outline, err := plotter.NewLine(circle(area.Circle()))
		if err != nil {
			return fmt.Errorf("area %s: %w", area.Name, err)
		}
		outline.LineStyle.Color = areaColor
		if area.IsHub {
			outline.LineStyle.Color = hubColor
		}
		p.Add(outline)
		labels.XYs = append(labels.XYs, plotter.XY{X: area.Center.X, Y: area.Center.Y})
		labels.Labels = append(labels.Labels, area.Name)
	}
	if len(labels.XYs) == 0 {
		return nil
	}
	names, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("area labels: %w", err)
	}
	p.Add(names)
	return nil
}

func addScatter(p *plot.Plot, legend string, xys plotter.XYs, c color.Color) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter %s: %w", legend, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(s)
	if legend != "" {
		p.Legend.Add(legend, s)
	}
	return nil
}

func circle(c geometry.Circle) plotter.XYs {
	xys := make(plotter.XYs, circleSegments+1)
	for i := range xys {
		pt := geometry.Polar(c.Center, c.Radius, 2*math.Pi*float64(i)/circleSegments)
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := p.Save(imageWidth, imageHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
