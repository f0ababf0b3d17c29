package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/graphshape/graphshape/lib/ast"
	"github.com/graphshape/graphshape/lib/render"
	sparqllexer "github.com/graphshape/graphshape/lib/sparql/lexer"
	sparqlparser "github.com/graphshape/graphshape/lib/sparql/parser"
	sqllexer "github.com/graphshape/graphshape/lib/sql/lexer"
	sqlparser "github.com/graphshape/graphshape/lib/sql/parser"
)

type Config struct {
	ListenAddr    string `json:"listenAddr"`
	MaxQueryBytes int64  `json:"maxQueryBytes"`
}

type Server struct {
	cfg Config
	mux *http.ServeMux
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.MaxQueryBytes <= 0 {
		cfg.MaxQueryBytes = 1 << 20
	}
	srv := &Server{cfg: cfg, mux: http.NewServeMux()}
	srv.mux.HandleFunc("/healthz", withSecurityHeaders(srv.handleHealth))
	srv.mux.HandleFunc("/api/v1/parse", withSecurityHeaders(srv.handleParse))
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// withSecurityHeaders middleware adds security headers to responses
func withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next(w, r)
	}
}

type parseRequest struct {
	Query   string `json:"query"`
	Dialect string `json:"dialect"`
}

type parseResponse struct {
	Canonical      string   `json:"canonical,omitempty"`
	Classification string   `json:"classification,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req parseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxQueryBytes)).Decode(&req); err != nil {
		log.Printf("ERROR: failed to decode request: %v", err)
		writeJSON(w, http.StatusBadRequest, parseResponse{Error: "invalid request payload"})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, parseResponse{Error: "query is required"})
		return
	}

	resp, err := processQuery(query, req.Dialect)
	if err != nil {
		var sqlSyn *sqlparser.SyntaxError
		var sqlLex *sqlparser.LexError
		var sparqlSyn *sparqlparser.SyntaxError
		var sparqlLex *sparqlparser.LexError
		switch {
		case errors.As(err, &sqlSyn), errors.As(err, &sqlLex),
			errors.As(err, &sparqlSyn), errors.As(err, &sparqlLex):
			writeJSON(w, http.StatusBadRequest, parseResponse{Error: err.Error()})
		case errors.Is(err, errUnknownDialect):
			writeJSON(w, http.StatusBadRequest, parseResponse{Error: err.Error()})
		default:
			log.Printf("ERROR: query processing failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, parseResponse{Error: "query processing failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

var errUnknownDialect = errors.New("dialect must be \"sql\" or \"sparql\"")

func processQuery(query, dialect string) (parseResponse, error) {
	var (
		stmt      ast.Statement
		canonical string
	)

	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "sql":
		p := sqlparser.New(sqllexer.New(query))
		stmt = p.ParseStatement()
		if errs := p.Errors(); len(errs) > 0 {
			return parseResponse{}, errs[0]
		}
		if stmt == nil {
			return parseResponse{}, errors.New("no statement parsed")
		}
		out, err := render.SQL(stmt)
		if err != nil {
			return parseResponse{}, fmt.Errorf("failed to render statement: %w", err)
		}
		canonical = out
	case "sparql":
		p := sparqlparser.New(sparqllexer.New(query))
		stmt = p.ParseStatement()
		if errs := p.Errors(); len(errs) > 0 {
			return parseResponse{}, errs[0]
		}
		if stmt == nil {
			return parseResponse{}, errors.New("no statement parsed")
		}
		out, err := render.SPARQL(stmt)
		if err != nil {
			return parseResponse{}, fmt.Errorf("failed to render statement: %w", err)
		}
		canonical = out
	default:
		return parseResponse{}, errUnknownDialect
	}

	return parseResponse{
		Canonical:      canonical,
		Classification: classify(stmt),
		Warnings:       validationWarnings(stmt),
	}, nil
}

func classify(stmt ast.Statement) string {
	switch {
	case stmt.IsReadOnly():
		return "readOnly"
	case stmt.IsModification():
		return "modification"
	case stmt.IsSchemaDefinition():
		return "schemaDefinition"
	default:
		return "unknown"
	}
}

// validationWarnings runs the structural validators applicable to the parsed
// statement. Violations are advisory: the statement still parsed and
// serializes, so they ride along as warnings rather than failing the request.
func validationWarnings(stmt ast.Statement) []string {
	var errs []error
	switch s := stmt.(type) {
	case *ast.CreateGraphStatement:
		errs = s.Validate()
	case *ast.SelectQuery:
		errs = collectGraphTableErrors(s.From)
	}

	if len(errs) == 0 {
		return nil
	}
	warnings := make([]string, len(errs))
	for i, err := range errs {
		warnings[i] = err.Error()
	}
	return warnings
}

func collectGraphTableErrors(src ast.DataSource) []error {
	switch s := src.(type) {
	case *ast.GraphTableSource:
		return s.Validate()
	case *ast.JoinSource:
		return append(collectGraphTableErrors(s.Left), collectGraphTableErrors(s.Right)...)
	case *ast.SubquerySource:
		if s.Select != nil {
			return collectGraphTableErrors(s.Select.From)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
