// Package drawer renders the step graph of a pipeline run as a DOT/SVG
// file, optionally coloured by the recorded channel transport times.
package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/semparse/exprun/pkg/pipeline/measure"
)

// SVGDrawer draws the pipeline graph into a file in DOT syntax.
type SVGDrawer struct {
	graph    graph.Graph[string, string]
	steps    map[string]struct{}
	fileName string
}

// NewSVGDrawer creates a new drawer writing to fileName.
func NewSVGDrawer(fileName string) *SVGDrawer {
	return &SVGDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
		steps:    make(map[string]struct{}),
	}
}

// AddStep adds a step vertex to the graph. Re-adding a known step is a no-op
// so that fan-out branches sharing one descriptor register once.
func (d *SVGDrawer) AddStep(name string) error {
	if _, ok := d.steps[name]; ok {
		return nil
	}
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.steps[name] = struct{}{}

	return nil
}

// AddLink adds an edge between a parent and a child step.
func (d *SVGDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw writes the graph to the configured file.
func (d *SVGDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = dot(d.graph, file)
	if err != nil {
		return errors.Wrapf(err, "unable to render dot file %s", d.fileName)
	}

	return nil
}

// SetTotalTime annotates stepName with the elapsed time since startTime.
func (d *SVGDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrap(err, "unable to get vertex properties")
	}

	properties.Attributes["xlabel"] = time.Since(startTime).String()

	return nil
}

const maxRGB = 240

// AddMeasure overlays recorded timings: vertices get their average compute
// time, edges get their transport time coloured from blue (fast) to red
// (slow).
func (d *SVGDrawer) AddMeasure(msr measure.Measure) error {
	allChanElapsed := make(map[time.Duration]string)
	sortedAllChanElapsed := []time.Duration{}

	for _, step := range msr.AllMetrics() {
		for _, info := range step.AVGTransportDuration() {
			if info.Elapsed == 0 {
				continue
			}

			if _, ok := allChanElapsed[info.Elapsed]; ok {
				continue
			}

			allChanElapsed[info.Elapsed] = ""
			sortedAllChanElapsed = append(sortedAllChanElapsed, info.Elapsed)
		}
	}

	if len(sortedAllChanElapsed) == 0 {
		return nil
	}

	sort.Slice(sortedAllChanElapsed, func(i, j int) bool {
		return sortedAllChanElapsed[i] > sortedAllChanElapsed[j]
	})

	maxValue := sortedAllChanElapsed[0]
	minValue := sortedAllChanElapsed[len(sortedAllChanElapsed)-1]

	for curr := range allChanElapsed {
		fraction := float64(1)
		if maxValue > minValue {
			fraction = float64(curr-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := -maxRGB*fraction + maxRGB

		edgeColor, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		allChanElapsed[curr] = edgeColor.ToHEX().String()
	}

	err := d.updateMetrics(msr, allChanElapsed)
	if err != nil {
		return errors.Wrap(err, "unable to update metrics")
	}

	return nil
}

func (d *SVGDrawer) updateMetrics(msr measure.Measure, allChanElapsed map[time.Duration]string) error {
	for name, step := range msr.AllMetrics() {
		if _, ok := d.steps[name]; !ok {
			continue
		}
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		stepAvg := step.AVGDuration()
		if stepAvg != 0 {
			properties.Attributes["xlabel"] = stepAvg.String()
		}

		if step.GetTotalDuration() > 0 {
			properties.Attributes["xlabel"] += ", end: " + step.GetTotalDuration().String()
		}

		for inputStep, info := range step.AllTransports() {
			if info.Elapsed == 0 {
				continue
			}

			err := d.graph.UpdateEdge(inputStep, name,
				graph.EdgeAttribute("label", info.Elapsed.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", allChanElapsed[info.Elapsed]), //nolint
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute is a functional option for the dot renderer.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for vertex, adjacencies := range adjacencyMap {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)

		if xlabel, ok := sourceProperties.Attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%+v <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, xlabel)

			delete(sourceProperties.Attributes, "xlabel")
		}

		stmt := statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceProperties.Attributes,
			HTMLAttributes:   htmlAttributes,
		}
		desc.Statements = append(desc.Statements, stmt)

		for adjacency, edge := range adjacencies {
			stmt := statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			}
			desc.Statements = append(desc.Statements, stmt)
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*SVGDrawer)(nil)
