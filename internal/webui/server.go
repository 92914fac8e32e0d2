// Package webui exposes a minimal HTTP front end for the export probe: a
// form that samples a question export, shows how its columns map onto the
// canonical schema, and offers a starter pipeline config for download.
//
// Routes:
//
//	GET  /          → form
//	POST /probe     → runs the probe with form inputs; renders output inline
//	GET  /api/probe → machine-friendly API, returns text/plain
package webui

import (
	_ "embed"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"qbank/internal/probe"
)

// Config controls server startup.
type Config struct {
	Addr string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/probe", s.handleProbe)
	s.mux.HandleFunc("/api/probe", s.handleAPIProbe)
}

// page carries the form state and probe output into the template.
type page struct {
	URL        string
	Job        string
	Bytes      int
	Delimiter  string
	Mode       string
	ResultText string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	_ = s.tmpl.Execute(w, page{})
}

// probeFromValues builds probe options from form or query values.
func probeFromValues(get func(string) string) (probe.Options, string) {
	nbytes, _ := strconv.Atoi(strings.TrimSpace(get("bytes")))
	return probe.Options{
		URL:       strings.TrimSpace(get("url")),
		Job:       strings.TrimSpace(get("job")),
		MaxBytes:  nbytes,
		Delimiter: probe.DecodeDelimiter(get("delimiter")),
	}, get("mode") // "map" or "config"
}

// handleProbe processes the form and renders a results page.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	opt, mode := probeFromValues(r.FormValue)

	body, err := runProbe(r, opt, mode)
	if err != nil {
		http.Error(w, "probe failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	data := page{
		URL:        opt.URL,
		Job:        opt.Job,
		Bytes:      opt.MaxBytes,
		Delimiter:  r.FormValue("delimiter"),
		Mode:       mode,
		ResultText: string(body),
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Println("template error:", err)
	}
}

// handleAPIProbe returns text/plain so scripts can curl it easily.
func (s *Server) handleAPIProbe(w http.ResponseWriter, r *http.Request) {
	opt, mode := probeFromValues(r.URL.Query().Get)
	body, err := runProbe(r, opt, mode)
	if err != nil {
		http.Error(w, "probe failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(body)
}

func runProbe(r *http.Request, opt probe.Options, mode string) ([]byte, error) {
	rep, err := probe.ProbeURL(r.Context(), opt)
	if err != nil {
		return nil, err
	}
	if mode == "config" {
		return rep.PipelineJSON(opt)
	}
	return rep.RenderText(), nil
}

//go:embed index.tmpl.html
var indexHTML string
