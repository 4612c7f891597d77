package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// Put is one PUT request received by a Backend.
type Put struct {
	Path string
	Row  core.Row
}

// Backend is a fake of the four dataset services on one httptest server.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	rows     map[string][]core.Row
	fails    map[string]int
	putFail  map[string]string
	gets     map[string]int
	puts     []Put
	getBlock chan struct{}
}

// NewBackend starts a backend serving SampleRows for every dataset. The
// server is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		rows:    make(map[string][]core.Row),
		fails:   make(map[string]int),
		putFail: make(map[string]string),
		gets:    make(map[string]int),
	}
	for _, s := range core.Specs() {
		b.rows[s.Path] = SampleRows(s.ID)
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// Endpoints returns the endpoint table pointing at this backend.
func (b *Backend) Endpoints() map[core.DatasetID]string {
	out := make(map[core.DatasetID]string)
	for _, s := range core.Specs() {
		out[s.ID] = b.Server.URL + s.Path
	}
	return out
}

// SetRows replaces the rows served for a dataset.
func (b *Backend) SetRows(id core.DatasetID, rows []core.Row) {
	spec, _ := core.Spec(id)
	b.mu.Lock()
	b.rows[spec.Path] = rows
	b.mu.Unlock()
}

// FailGets makes the next n GETs of a dataset answer 500.
func (b *Backend) FailGets(id core.DatasetID, n int) {
	spec, _ := core.Spec(id)
	b.mu.Lock()
	b.fails[spec.Path] = n
	b.mu.Unlock()
}

// FailPuts makes every PUT to path suffix answer 400 with body.
func (b *Backend) FailPuts(subResource, body string) {
	b.mu.Lock()
	b.putFail[subResource] = body
	b.mu.Unlock()
}

// BlockGets holds every GET until the returned func is called.
func (b *Backend) BlockGets() (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.getBlock = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Gets returns how many GETs a dataset received.
func (b *Backend) Gets(id core.DatasetID) int {
	spec, _ := core.Spec(id)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets[spec.Path]
}

// Puts returns the PUT requests received so far.
func (b *Backend) Puts() []Put {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Put(nil), b.puts...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		b.serveGet(w, r)
	case http.MethodPut:
		b.servePut(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *Backend) serveGet(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.gets[r.URL.Path]++
	block := b.getBlock
	rows, ok := b.rows[r.URL.Path]
	fail := b.fails[r.URL.Path] > 0
	if fail {
		b.fails[r.URL.Path]--
	}
	b.mu.Unlock()

	if block != nil {
		<-block
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	if fail {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
}

func (b *Backend) servePut(w http.ResponseWriter, r *http.Request) {
	var row core.Row
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &row); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.puts = append(b.puts, Put{Path: r.URL.Path, Row: row})
	var failBody string
	failed := false
	for suffix, msg := range b.putFail {
		if strings.HasSuffix(r.URL.Path, "/"+suffix) {
			failBody, failed = msg, true
		}
	}
	b.mu.Unlock()

	if failed {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, failBody)
		return
	}
	w.WriteHeader(http.StatusOK)
}
