package viewer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/track"
	"github.com/trackforge/engine/internal/train"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	g := track.NewGraph(zap.NewNop())
	a := g.CreateNewEmptyJoint(geom.Pt(0, 0), geom.Pt(1, 0), 0)
	b := g.CreateNewEmptyJoint(geom.Pt(200, 0), geom.Pt(1, 0), 0)
	if !g.ConnectJoints(a, b, nil) {
		t.Fatal("connect failed")
	}
	seg, _ := g.SegmentBetween(a, b)

	tr := train.New(g, zap.NewNop())
	if !tr.Place(train.Position{Segment: seg, T: 0.5, Direction: train.Forward}, []float64{20, 10}) {
		t.Fatal("place failed")
	}

	s := NewServer(g, tr, nil, zap.NewNop())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func TestTopologyEndpoint(t *testing.T) {
	_, ts := testServer(t)
	var topo topologyJSON
	getJSON(t, ts.URL+"/api/topology", &topo)
	if len(topo.Joints) != 2 || len(topo.Segments) != 1 {
		t.Fatalf("topology = %d joints, %d segments", len(topo.Joints), len(topo.Segments))
	}
	if len(topo.Segments[0].Control) != 3 {
		t.Fatalf("control points = %d", len(topo.Segments[0].Control))
	}
}

func TestDrawDataViewportFilter(t *testing.T) {
	_, ts := testServer(t)

	var all []drawEntryJSON
	getJSON(t, ts.URL+"/api/drawdata", &all)
	if len(all) != 1 {
		t.Fatalf("unbounded drawdata = %d entries", len(all))
	}

	var none []drawEntryJSON
	getJSON(t, ts.URL+"/api/drawdata?minx=1000&miny=1000&maxx=2000&maxy=2000", &none)
	if len(none) != 0 {
		t.Fatalf("offscreen drawdata = %d entries", len(none))
	}
}

func TestProjectEndpoint(t *testing.T) {
	_, ts := testServer(t)
	var hit struct {
		Type string `json:"type"`
	}
	getJSON(t, ts.URL+"/api/project?x=100&y=0.2", &hit)
	if hit.Type != "curve" {
		t.Fatalf("projection type = %q", hit.Type)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	_, ts := testServer(t)
	var out struct {
		From    string      `json:"from"`
		To      string      `json:"to"`
		Control []pointJSON `json:"control"`
	}
	getJSON(t, ts.URL+"/api/preview?x0=0&y0=0&x1=100&y1=80", &out)
	if out.From != "extendingTrack" || out.To != "new" {
		t.Fatalf("kinds = %q -> %q", out.From, out.To)
	}
	// One constrained endpoint yields a quadratic.
	if len(out.Control) != 3 {
		t.Fatalf("control points = %d", len(out.Control))
	}
}

func TestThrottleEndpoint(t *testing.T) {
	s, ts := testServer(t)

	body := bytes.NewBufferString(`{"step":"P3"}`)
	resp, err := http.Post(ts.URL+"/api/train/throttle", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if s.train.Throttle() != train.ThrottleP3 {
		t.Fatalf("throttle = %v", s.train.Throttle())
	}

	body = bytes.NewBufferString(`{"step":"P9"}`)
	resp, err = http.Post(ts.URL+"/api/train/throttle", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad step status = %d", resp.StatusCode)
	}
}

func TestReverseEndpoint(t *testing.T) {
	_, ts := testServer(t)
	var state trainStateJSON
	resp, err := http.Post(ts.URL+"/api/train/reverse", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if !state.Placed || len(state.Bogies) == 0 {
		t.Fatalf("state = %+v", state)
	}
}

func TestTrainStateEndpoint(t *testing.T) {
	_, ts := testServer(t)
	var state trainStateJSON
	getJSON(t, ts.URL+"/api/train", &state)
	if !state.Placed {
		t.Fatal("train not reported placed")
	}
	// Lead plus two bogies.
	if len(state.Bogies) != 3 {
		t.Fatalf("bogies = %d", len(state.Bogies))
	}
	if len(state.Segments) == 0 {
		t.Fatal("no occupied segments")
	}
}
