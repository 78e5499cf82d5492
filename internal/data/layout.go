package data

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/track"
	"github.com/trackforge/engine/internal/train"
)

// LayoutJoint is one named joint in a layout file. Names exist only in the
// file; the built graph uses its own ids.
type LayoutJoint struct {
	Name      string  `yaml:"name"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	TX        float64 `yaml:"tx"`
	TY        float64 `yaml:"ty"`
	Elevation int     `yaml:"elevation"`
}

// LayoutPoint is a bare control point.
type LayoutPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LayoutSegment connects two named joints, optionally through control
// points (none = straight, one = quadratic, two = cubic).
type LayoutSegment struct {
	From string        `yaml:"from"`
	To   string        `yaml:"to"`
	Ctrl []LayoutPoint `yaml:"ctrl"`
}

// LayoutTrain places a train on a segment named by its endpoints.
type LayoutTrain struct {
	From         string    `yaml:"from"`
	To           string    `yaml:"to"`
	T            float64   `yaml:"t"`
	Direction    string    `yaml:"direction"` // "forward" or "backward"
	BogieOffsets []float64 `yaml:"bogie_offsets"`
}

// Layout is a declarative track network plus an optional starting train.
type Layout struct {
	Gauge    float64         `yaml:"gauge"`
	Joints   []LayoutJoint   `yaml:"joints"`
	Segments []LayoutSegment `yaml:"segments"`
	Train    *LayoutTrain    `yaml:"train"`
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return &l, nil
}

// Build constructs the track graph the layout describes and, if a train is
// declared, places it. The returned train is nil when the layout has none.
func (l *Layout) Build(log *zap.Logger) (*track.Graph, *train.Train, error) {
	g := track.NewGraph(log)
	if l.Gauge > 0 {
		g.SetGauge(l.Gauge)
	}

	ids := make(map[string]track.JointID, len(l.Joints))
	for _, lj := range l.Joints {
		if lj.Name == "" {
			return nil, nil, fmt.Errorf("layout joint without a name")
		}
		if _, dup := ids[lj.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate joint name %q", lj.Name)
		}
		tan := geom.Pt(lj.TX, lj.TY)
		if tan.Length() == 0 {
			tan = geom.Pt(1, 0)
		}
		ids[lj.Name] = g.CreateNewEmptyJoint(geom.Pt(lj.X, lj.Y), tan.Normalize(), lj.Elevation)
	}

	for _, ls := range l.Segments {
		from, ok := ids[ls.From]
		if !ok {
			return nil, nil, fmt.Errorf("segment references unknown joint %q", ls.From)
		}
		to, ok := ids[ls.To]
		if !ok {
			return nil, nil, fmt.Errorf("segment references unknown joint %q", ls.To)
		}
		ctrl := make([]geom.Point, len(ls.Ctrl))
		for i, p := range ls.Ctrl {
			ctrl[i] = geom.Pt(p.X, p.Y)
		}
		if !g.ConnectJoints(from, to, ctrl) {
			return nil, nil, fmt.Errorf("cannot connect %q to %q", ls.From, ls.To)
		}
	}

	if l.Train == nil {
		return g, nil, nil
	}

	from, ok := ids[l.Train.From]
	if !ok {
		return nil, nil, fmt.Errorf("train references unknown joint %q", l.Train.From)
	}
	to, ok := ids[l.Train.To]
	if !ok {
		return nil, nil, fmt.Errorf("train references unknown joint %q", l.Train.To)
	}
	segID, ok := g.SegmentBetween(from, to)
	if !ok {
		return nil, nil, fmt.Errorf("no segment between %q and %q", l.Train.From, l.Train.To)
	}

	dir := train.Forward
	switch l.Train.Direction {
	case "", "forward":
	case "backward":
		dir = train.Backward
	default:
		return nil, nil, fmt.Errorf("bad train direction %q", l.Train.Direction)
	}

	tr := train.New(g, log)
	pos := train.Position{Segment: segID, T: l.Train.T, Direction: dir}
	if !tr.Place(pos, l.Train.BogieOffsets) {
		return nil, nil, fmt.Errorf("train does not fit at t=%v on %q-%q",
			l.Train.T, l.Train.From, l.Train.To)
	}
	return g, tr, nil
}
