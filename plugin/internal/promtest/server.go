package promtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Rule is one entry of a rule group.
type Rule struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Alert is one entry of the alerts list.
type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations,omitempty"`
	State       string            `json:"state,omitempty"`
}

// Firing returns a firing Alert named name with the given label pairs and
// summary annotation. An empty summary omits the annotation.
func Firing(name, summary string, kv ...string) Alert {
	labels := map[string]string{"alertname": name}
	for i := 0; i+1 < len(kv); i += 2 {
		labels[kv[i]] = kv[i+1]
	}
	a := Alert{Labels: labels, State: "firing"}
	if summary != "" {
		a.Annotations = map[string]string{"summary": summary}
	}
	return a
}

type rawResponse struct {
	code int
	body string
}

// Server is a minimal Prometheus HTTP API serving api/v1/rules and
// api/v1/alerts from in-memory state.
type Server struct {
	srv *httptest.Server

	mu        sync.Mutex
	groups    map[string][]Rule
	alerts    []Alert
	raw       map[string]rawResponse
	delay     time.Duration
	requests  map[string]int
	lastHdr   http.Header
	groupKeys []string
}

// New starts a plain HTTP server and closes it when t finishes.
func New(t testing.TB) *Server {
	return start(t, httptest.NewServer)
}

// NewTLS starts a server with a self-signed certificate.
func NewTLS(t testing.TB) *Server {
	return start(t, httptest.NewTLSServer)
}

func start(t testing.TB, mk func(http.Handler) *httptest.Server) *Server {
	t.Helper()
	s := &Server{
		groups:   map[string][]Rule{},
		raw:      map[string]rawResponse{},
		requests: map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/rules", s.handleRules)
	mux.HandleFunc("/api/v1/alerts", s.handleAlerts)
	s.srv = mk(s.wrap(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the server root with a trailing slash, usable as a base URL.
func (s *Server) URL() string { return s.srv.URL + "/" }

// HTTPServer returns the underlying test server, e.g. for its TLS certificate.
func (s *Server) HTTPServer() *httptest.Server { return s.srv }

// AddRules appends rules to the named group.
func (s *Server) AddRules(group string, rules ...Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group]; !ok {
		s.groupKeys = append(s.groupKeys, group)
	}
	s.groups[group] = append(s.groups[group], rules...)
}

// AddAlertingRules registers alerting rules with the given names in group "default".
func (s *Server) AddAlertingRules(names ...string) {
	rules := make([]Rule, 0, len(names))
	for _, n := range names {
		rules = append(rules, Rule{Name: n, Type: "alerting"})
	}
	s.AddRules("default", rules...)
}

// SetAlerts replaces the alerts list.
func (s *Server) SetAlerts(alerts ...Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
}

// SetRaw makes path ("api/v1/rules" or "api/v1/alerts") answer with a fixed
// status code and body, bypassing the in-memory state.
func (s *Server) SetRaw(path string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw["/"+path] = rawResponse{code: code, body: body}
}

// SetDelay holds every response for d, or until the client gives up.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Requests returns how many requests path has received.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests["/"+path]
}

// LastHeader returns the headers of the most recent request.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHdr.Clone()
}

func (s *Server) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.lastHdr = r.Header.Clone()
		delay := s.delay
		raw, hasRaw := s.raw[r.URL.Path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(raw.code)
			w.Write([]byte(raw.body)) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	type group struct {
		Name  string `json:"name"`
		File  string `json:"file"`
		Rules []Rule `json:"rules"`
	}
	s.mu.Lock()
	groups := make([]group, 0, len(s.groupKeys))
	for _, k := range s.groupKeys {
		groups = append(groups, group{Name: k, File: k + ".rules.yml", Rules: s.groups[k]})
	}
	s.mu.Unlock()

	jsonResp(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	alerts := append([]Alert{}, s.alerts...)
	s.mu.Unlock()

	jsonResp(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// ── helpers ──────────────────────────────────────────────────────────────────

type envelope struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
	Error     string `json:"error,omitempty"`
}

func jsonResp(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Status: "success", Data: data}) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(envelope{Status: "error", ErrorType: "bad_data", Error: msg}) //nolint:errcheck
}
