package viewer

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/preview"
	"github.com/trackforge/engine/internal/track"
	"github.com/trackforge/engine/internal/train"
)

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPoint(p geom.Point) pointJSON { return pointJSON{X: p.X, Y: p.Y} }

func toPoints(ps []geom.Point) []pointJSON {
	out := make([]pointJSON, len(ps))
	for i, p := range ps {
		out[i] = toPoint(p)
	}
	return out
}

type jointJSON struct {
	ID        uint32    `json:"id"`
	Position  pointJSON `json:"position"`
	Tangent   pointJSON `json:"tangent"`
	Elevation int       `json:"elevation"`
	Neighbors []uint32  `json:"neighbors"`
}

type segmentJSON struct {
	ID       uint32      `json:"id"`
	Joint0   uint32      `json:"joint0"`
	Joint1   uint32      `json:"joint1"`
	Control  []pointJSON `json:"control"`
	ElevFrom int         `json:"elevFrom"`
	ElevTo   int         `json:"elevTo"`
	Gauge    float64     `json:"gauge"`
}

type topologyJSON struct {
	Joints   []jointJSON   `json:"joints"`
	Segments []segmentJSON `json:"segments"`
}

type drawEntryJSON struct {
	Segment  uint32      `json:"segment"`
	Control  []pointJSON `json:"control"`
	T0       float64     `json:"t0"`
	T1       float64     `json:"t1"`
	ElevFrom float64     `json:"elevFrom"`
	ElevTo   float64     `json:"elevTo"`
}

type bogieJSON struct {
	Segment uint32    `json:"segment"`
	T       float64   `json:"t"`
	World   pointJSON `json:"world"`
}

type trainStateJSON struct {
	Placed   bool        `json:"placed"`
	Speed    float64     `json:"speed"`
	Throttle string      `json:"throttle"`
	Bogies   []bogieJSON `json:"bogies"`
	Segments []uint32    `json:"occupiedSegments"`
	Joints   []uint32    `json:"occupiedJoints"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := topologyJSON{
		Joints:   []jointJSON{},
		Segments: []segmentJSON{},
	}
	s.graph.EachJoint(func(id track.JointID, j *track.Joint) {
		var ns []uint32
		for _, n := range j.Neighbors(track.SenseTangent) {
			ns = append(ns, uint32(n))
		}
		for _, n := range j.Neighbors(track.SenseReverse) {
			ns = append(ns, uint32(n))
		}
		out.Joints = append(out.Joints, jointJSON{
			ID:        uint32(id),
			Position:  toPoint(j.Position),
			Tangent:   toPoint(j.Tangent),
			Elevation: j.Elevation,
			Neighbors: ns,
		})
	})
	s.graph.EachSegment(func(id track.SegmentID, seg *track.Segment) {
		out.Segments = append(out.Segments, segmentJSON{
			ID:       uint32(id),
			Joint0:   uint32(seg.Joint0),
			Joint1:   uint32(seg.Joint1),
			Control:  toPoints(seg.Curve.P),
			ElevFrom: seg.ElevFrom,
			ElevTo:   seg.ElevTo,
			Gauge:    seg.Gauge,
		})
	})
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, out)
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) handleDrawData(w http.ResponseWriter, r *http.Request) {
	box := geom.BBox{
		MinX: queryFloat(r, "minx", math.Inf(-1)),
		MinY: queryFloat(r, "miny", math.Inf(-1)),
		MaxX: queryFloat(r, "maxx", math.Inf(1)),
		MaxY: queryFloat(r, "maxy", math.Inf(1)),
	}

	s.mu.Lock()
	entries := s.graph.DrawData(box)
	out := make([]drawEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = drawEntryJSON{
			Segment:  uint32(e.Segment),
			Control:  toPoints(e.Curve.P),
			T0:       e.T0,
			T1:       e.T1,
			ElevFrom: e.ElevFrom,
			ElevTo:   e.ElevTo,
		}
	}
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p := geom.Pt(queryFloat(r, "x", 0), queryFloat(r, "y", 0))
	s.mu.Lock()
	hit := s.graph.Project(p)
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"type":    hit.Type.String(),
		"joint":   uint32(hit.Joint),
		"segment": uint32(hit.Segment),
		"point":   toPoint(hit.Point),
		"t":       hit.T,
		"tangent": toPoint(hit.Tangent),
	})
}

// handlePreview synthesizes the curve a commit at these two points would
// create, so the canvas can draw it while the pointer moves.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	from := geom.Pt(queryFloat(r, "x0", 0), queryFloat(r, "y0", 0))
	to := geom.Pt(queryFloat(r, "x1", 0), queryFloat(r, "y1", 0))

	s.mu.Lock()
	a := preview.Classify(s.graph, from, s.graph.Project(from))
	b := preview.Classify(s.graph, to, s.graph.Project(to))
	curve := preview.Curve(a, b)
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, map[string]any{
		"from":    a.Kind.String(),
		"to":      b.Kind.String(),
		"control": toPoints(curve.P),
	})
}

// trainStateLocked builds the state DTO; s.mu must be held.
func (s *Server) trainStateLocked() trainStateJSON {
	state := trainStateJSON{
		Bogies:   []bogieJSON{},
		Segments: []uint32{},
		Joints:   []uint32{},
	}
	if s.train == nil || !s.train.Placed() {
		return state
	}
	state.Placed = true
	state.Speed = s.train.Speed()
	state.Throttle = s.train.Throttle().String()

	if positions, ok := s.train.BogiePositions(); ok {
		lead := []train.Position{s.train.Position()}
		for _, pos := range append(lead, positions...) {
			b := bogieJSON{Segment: uint32(pos.Segment), T: pos.T}
			if seg := s.graph.Segment(pos.Segment); seg != nil {
				b.World = toPoint(seg.Curve.Eval(pos.T))
			}
			state.Bogies = append(state.Bogies, b)
		}
	}
	for _, id := range s.train.OccupiedSegments() {
		state.Segments = append(state.Segments, uint32(id))
	}
	for _, pj := range s.train.OccupiedJoints() {
		state.Joints = append(state.Joints, uint32(pj.Joint))
	}
	return state
}

func (s *Server) handleTrainState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.trainStateLocked()
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleThrottle(w http.ResponseWriter, r *http.Request) {
	if s.train == nil {
		s.respondError(w, http.StatusNotFound, "no train")
		return
	}
	var req struct {
		Step string `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "bad request body")
		return
	}
	step, ok := train.ParseThrottle(req.Step)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown throttle step")
		return
	}
	s.mu.Lock()
	s.train.SetThrottle(step)
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, map[string]string{"throttle": step.String()})
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	if s.train == nil {
		s.respondError(w, http.StatusNotFound, "no train")
		return
	}
	s.mu.Lock()
	ok := s.train.SwitchDirection()
	state := s.trainStateLocked()
	s.mu.Unlock()
	if !ok {
		s.respondError(w, http.StatusConflict, "cannot reverse")
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}
