package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MKlolbullen/bhtriage/internal/bundle"
	"github.com/MKlolbullen/bhtriage/internal/model"
	"github.com/MKlolbullen/bhtriage/internal/pipeline"
	"github.com/MKlolbullen/bhtriage/internal/query"
	"github.com/MKlolbullen/bhtriage/internal/report"
	"github.com/MKlolbullen/bhtriage/internal/reportstore"
)

// Options configures a Server.
type Options struct {
	// Defaults apply when a request omits limit, filter or exclude_privileged.
	Defaults       query.Options
	CacheTTL       time.Duration
	MaxUploadBytes int64
}

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	loader   *bundle.Loader
	triage   *pipeline.Triage
	store    *reportstore.Store
	results  *cache.Cache
	defaults query.Options
	maxBytes int64
}

func New(store *reportstore.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 256 << 20
	}
	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger.With("component", "server"),
		loader:   bundle.NewLoader(nil, logger),
		triage:   pipeline.New(logger),
		store:    store,
		results:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		defaults: opts.Defaults,
		maxBytes: opts.MaxUploadBytes,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/triage", s.handleTriage)

	// Saved reports
	s.mux.HandleFunc("/api/reports", s.handleListReports)
	s.mux.HandleFunc("/api/reports/", s.handleGetReport)

	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// ---------- Triage ----------

// TriageResponse is the JSON body returned by POST /api/triage.
type TriageResponse struct {
	ID     string     `json:"id,omitempty"`
	SHA256 string     `json:"sha256"`
	Cached bool       `json:"cached"`
	View   query.View `json:"view"`
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	opts, err := s.requestOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("format") == "" {
		format = report.FormatJSON
	}

	name, data, err := s.readBundle(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	res, cached := s.cachedResult(key)
	if !cached {
		docs, err := s.loader.LoadReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err = s.triage.Run(r.Context(), docs, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("triage error: %v", err), http.StatusInternalServerError)
			return
		}
		s.results.Set(key, res, cache.DefaultExpiration)
	}

	resp := TriageResponse{SHA256: key, Cached: cached, View: query.Build(res, opts)}

	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save {
		rec := &reportstore.Record{Bundle: name, SHA256: key, View: resp.View}
		if err := s.store.Save(rec); err != nil {
			s.logger.Error("save report", "err", err)
			http.Error(w, "could not save report", http.StatusInternalServerError)
			return
		}
		resp.ID = rec.ID
		w.Header().Set("X-Report-ID", rec.ID)
	}

	if format != report.FormatJSON {
		writeRendered(w, format, resp.View)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) cachedResult(key string) (*model.Result, bool) {
	v, ok := s.results.Get(key)
	if !ok {
		return nil, false
	}
	res, ok := v.(*model.Result)
	return res, ok
}

// requestOptions overlays the limit, filter, tier and exclude_privileged
// query parameters onto the server defaults.
func (s *Server) requestOptions(r *http.Request) (query.Options, error) {
	opts := s.defaults
	q := r.URL.Query()
	if q.Has("limit") {
		l, err := query.ParseLimit(q.Get("limit"))
		if err != nil {
			return opts, err
		}
		opts.Limit = l
	}
	if q.Has("filter") {
		opts.Filter = q.Get("filter")
	}
	if q.Has("tier") {
		tiers, err := query.ParseTiers(q.Get("tier"))
		if err != nil {
			return opts, err
		}
		opts.Tiers = tiers
	}
	if v := q.Get("exclude_privileged"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("exclude_privileged: %w", err)
		}
		opts.ExcludePrivilegedDest = b
	}
	return opts, nil
}

// readBundle accepts either a raw ZIP body or a multipart form with the
// archive in the "bundle" field.
func (s *Server) readBundle(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", nil, fmt.Errorf("parse form: %w", err)
		}
		f, hdr, err := r.FormFile("bundle")
		if err != nil {
			return "", nil, fmt.Errorf("missing bundle field: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("read bundle: %w", err)
		}
		return hdr.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty body")
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.zip"
	}
	return name, data, nil
}

// ---------- Saved reports ----------

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	metas, err := s.store.List()
	if err != nil {
		http.Error(w, fmt.Sprintf("list reports: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, metas)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/reports/")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	rec, err := s.store.Load(id)
	if err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if f := r.URL.Query().Get("format"); f != "" {
		format, err := report.ParseFormat(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if format != report.FormatJSON {
			writeRendered(w, format, rec.View)
			return
		}
	}
	writeJSON(w, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var contentTypes = map[report.Format]string{
	report.FormatTable: "text/plain; charset=utf-8",
	report.FormatCSV:   "text/csv; charset=utf-8",
	report.FormatDOT:   "text/vnd.graphviz; charset=utf-8",
}

func writeRendered(w http.ResponseWriter, f report.Format, v query.View) {
	var buf bytes.Buffer
	if err := report.Render(&buf, f, v); err != nil {
		http.Error(w, fmt.Sprintf("render: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	_, _ = w.Write(buf.Bytes())
}
