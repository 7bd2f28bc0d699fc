// Package server is the search frontend: the HTTP routes from spec.md §6
// layered over the query evaluator and task queue. The HTML templating
// itself is stdlib (html/template) because spec.md §1 places "the hosting
// HTTP server and its HTML templating" outside the core's concern — see
// DESIGN.md.
package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/standardbeagle/croissantine/internal/debug"
	"github.com/standardbeagle/croissantine/internal/query"
	"github.com/standardbeagle/croissantine/internal/queue"
	"github.com/standardbeagle/croissantine/internal/store"
)

// warcBaseURL is the CommonCrawl archive host the admin "register a crawl"
// form builds WarcPathList URLs against, per spec.md §6.
const warcBaseURL = "https://data.commoncrawl.org/crawl-data/"

// Server holds the dependencies every route handler needs.
type Server struct {
	db            *store.DB
	resultLimit   int
	adminUser     string
	adminPassword string

	tmpl *template.Template
}

// New builds a Server over db. adminUser/adminPassword gate the admin
// routes behind HTTP Basic auth; if adminUser is empty, the admin routes
// reject every request (refuse rather than run unauthenticated).
func New(db *store.DB, resultLimit int, adminUser, adminPassword string) *Server {
	return &Server{
		db:            db,
		resultLimit:   resultLimit,
		adminUser:     adminUser,
		adminPassword: adminPassword,
		tmpl:          template.Must(template.New("pages").Parse(pageTemplates)),
	}
}

// Handler returns the root http.Handler with every route from spec.md §6
// registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/redirect", s.handleRedirect)
	mux.HandleFunc("/about", s.handleAbout)
	mux.HandleFunc("/indexer", s.requireAdmin(s.handleIndexerStatus))
	mux.HandleFunc("/register-warc", s.requireAdmin(s.handleRegisterWarc))
	return mux
}

// requireAdmin wraps h with HTTP Basic auth against the configured admin
// credentials, per spec.md §6 ("Admin routes require HTTP Basic auth with
// a shared secret").
func (s *Server) requireAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || s.adminUser == "" || user != s.adminUser || pass != s.adminPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="croissantine-admin"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

// handleIndex serves the landing page showing |universe|.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	rtxn, err := s.db.ReadTxn()
	if err != nil {
		s.serverError(w, err)
		return
	}
	defer rtxn.Close()

	universe, err := rtxn.AllDocids()
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, "index", map[string]any{
		"UniverseSize": universe.GetCardinality(),
	})
}

// handleSearch renders HTML results for ?query=, per spec.md §4.6. An
// empty or whitespace-only query redirects to the landing page per
// spec.md §7.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if isBlank(q) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	rtxn, err := s.db.ReadTxn()
	if err != nil {
		s.serverError(w, err)
		return
	}
	defer rtxn.Close()

	result, err := query.Evaluate(rtxn, q, s.resultLimit)
	if err != nil {
		s.serverError(w, err)
		return
	}

	debug.LogSearch("query %q: %d hits (count %d)", q, len(result.Hits), result.Count)
	s.render(w, "search", map[string]any{
		"Query":  q,
		"Result": result,
	})
}

// handleRedirect issues a 302 to ?url=, per spec.md §6. index and query are
// accepted for route-shape parity with the original but are not otherwise
// interpreted.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// handleAbout 302s to an external about page.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "https://github.com/Kerollmops/croissantine", http.StatusFound)
}

// handleIndexerStatus lists every queued task, admin-only.
func (s *Server) handleIndexerStatus(w http.ResponseWriter, r *http.Request) {
	pending, err := queue.List(s.db)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, "indexer", map[string]any{
		"Pending": pending,
	})
}

// handleRegisterWarc enqueues a WarcPathList task built from the warcId
// form field, admin-only, per spec.md §6.
func (s *Server) handleRegisterWarc(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	warcID := r.FormValue("warcId")
	if warcID == "" {
		http.Error(w, "warcId is required", http.StatusBadRequest)
		return
	}

	url := fmt.Sprintf("%s%s/warc.paths.gz", warcBaseURL, warcID)
	priority, err := queue.SubmitPathList(s.db, url)
	if err != nil {
		s.serverError(w, err)
		return
	}

	debug.LogQueue("registered crawl %s at priority %d", warcID, priority)
	http.Redirect(w, r, "/indexer", http.StatusFound)
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	debug.LogSearch("request failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		debug.LogSearch("template render failed: %v", err)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
