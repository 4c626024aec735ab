package planner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"reflect"
	"sync"
	"testing"

	"github.com/T03ty/Hytale-F2P/internal/archive"
	"github.com/T03ty/Hytale-F2P/internal/buildver"
)

// probeServer plays the CDN for availability sweeps: HEAD-only, 200 for
// builds it carries, 404 for gaps.
type probeServer struct {
	mu      sync.Mutex
	order   []int
	present map[int]bool
	broken  map[int]bool
	srv     *httptest.Server
}

func newProbeServer(t *testing.T, present ...int) *probeServer {
	ps := &probeServer{present: map[int]bool{}, broken: map[int]bool{}}
	for _, b := range present {
		ps.present[b] = true
	}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used %s, want HEAD", r.Method)
		}
		build := buildver.ParseBuild(path.Base(r.URL.Path))
		ps.mu.Lock()
		ps.order = append(ps.order, build)
		ps.mu.Unlock()
		switch {
		case ps.broken[build]:
			w.WriteHeader(http.StatusInternalServerError)
		case ps.present[build]:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *probeServer) requested() []int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]int(nil), ps.order...)
}

func probePlanner(ps *probeServer, osID string) *Planner {
	return New(Config{
		Locator: archive.NewLocator(ps.srv.URL),
		OS:      osID,
		Arch:    "x64",
	})
}

func windowsNames(builds ...int) []string {
	var names []string
	for _, b := range builds {
		name, _ := archive.FileName(b, "windows")
		names = append(names, name)
	}
	return names
}

func TestProbeSweepsWindowInOrder(t *testing.T) {
	ps := newProbeServer(t, 10, 8, 7, 5)
	p := probePlanner(ps, "windows")

	got, err := p.ProbeAvailable(context.Background(), "v10", "release", ProbeOptions{MaxProbe: 5})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}

	if want := windowsNames(10, 8, 7, 5); !reflect.DeepEqual(got, want) {
		t.Fatalf("archives = %v, want %v", got, want)
	}
	// Sequential mode walks the window newest first, and a 404 in the
	// middle does not cut the sweep short.
	if want := []int{10, 9, 8, 7, 6, 5}; !reflect.DeepEqual(ps.requested(), want) {
		t.Fatalf("probed %v, want %v", ps.requested(), want)
	}
}

func TestProbeParallelKeepsDescendingOrder(t *testing.T) {
	ps := newProbeServer(t, 10, 8, 7, 5)
	p := probePlanner(ps, "windows")

	got, err := p.ProbeAvailable(context.Background(), "v10", "release", ProbeOptions{MaxProbe: 5, Workers: 4})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}

	// Workers race on the wire but the result order never changes.
	if want := windowsNames(10, 8, 7, 5); !reflect.DeepEqual(got, want) {
		t.Fatalf("archives = %v, want %v", got, want)
	}
	if len(ps.requested()) != 6 {
		t.Fatalf("probed %d builds, want 6", len(ps.requested()))
	}
}

func TestProbeNeverGoesBelowBuildOne(t *testing.T) {
	ps := newProbeServer(t, 3, 1)
	p := probePlanner(ps, "windows")

	got, err := p.ProbeAvailable(context.Background(), "v3", "release", ProbeOptions{MaxProbe: 20})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}

	if want := []int{3, 2, 1}; !reflect.DeepEqual(ps.requested(), want) {
		t.Fatalf("probed %v, want %v", ps.requested(), want)
	}
	if want := windowsNames(3, 1); !reflect.DeepEqual(got, want) {
		t.Fatalf("archives = %v, want %v", got, want)
	}
}

func TestProbeCountsServerErrorsAsAbsent(t *testing.T) {
	ps := newProbeServer(t, 10, 9, 8)
	ps.broken[9] = true
	p := probePlanner(ps, "windows")

	got, err := p.ProbeAvailable(context.Background(), "v10", "release", ProbeOptions{MaxProbe: 2})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}

	if want := windowsNames(10, 8); !reflect.DeepEqual(got, want) {
		t.Fatalf("archives = %v, want %v", got, want)
	}
	if len(ps.requested()) != 3 {
		t.Fatalf("a 500 must not stop the sweep; probed %v", ps.requested())
	}
}

func TestProbePacedSweepFindsEverything(t *testing.T) {
	ps := newProbeServer(t, 6, 5, 4)
	p := probePlanner(ps, "windows")

	got, err := p.ProbeAvailable(context.Background(), "v6", "release", ProbeOptions{MaxProbe: 2, RPS: 500})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}
	if want := windowsNames(6, 5, 4); !reflect.DeepEqual(got, want) {
		t.Fatalf("archives = %v, want %v", got, want)
	}
}

func TestProbeRejectsUnversionedLatest(t *testing.T) {
	ps := newProbeServer(t)
	p := probePlanner(ps, "windows")

	if _, err := p.ProbeAvailable(context.Background(), "latest", "release", ProbeOptions{}); err == nil {
		t.Fatal("expected an error for a latest version without a build number")
	}
}

func TestProbeUnknownPlatformFindsNothing(t *testing.T) {
	ps := newProbeServer(t, 10, 9)
	p := probePlanner(ps, "plan9")

	got, err := p.ProbeAvailable(context.Background(), "v10", "release", ProbeOptions{MaxProbe: 2})
	if err != nil {
		t.Fatalf("ProbeAvailable: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("no archive layout for plan9, got %v", got)
	}
	if len(ps.requested()) != 0 {
		t.Fatalf("nothing should hit the wire, probed %v", ps.requested())
	}
}
