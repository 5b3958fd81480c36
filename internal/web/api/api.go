// Package api serves a read-only HTTP view of a metadata registry.
package api

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// Source supplies the registry to serve. The registry may change between
// requests and is nil until one has been built.
type Source interface {
	Registry() *metadata.Registry
}

type staticSource struct{ r *metadata.Registry }

func (s staticSource) Registry() *metadata.Registry { return s.r }

// Static wraps a fixed registry as a Source.
func Static(r *metadata.Registry) Source { return staticSource{r} }

// TypeSummary is one entry of the type listing.
type TypeSummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	SubType     string `json:"sub_type"`
	Parent      string `json:"parent,omitempty"`
	Resolved    bool   `json:"resolved"`
	Description string `json:"description,omitempty"`
}

// ChildRule is an accepted-child rule with its origin.
type ChildRule struct {
	metadata.AcceptsChildren
	Inherited bool `json:"inherited"`
}

// ParentRule is an accepted-parent rule with its origin.
type ParentRule struct {
	metadata.AcceptsParents
	Inherited bool `json:"inherited"`
}

// TypeDetail describes one type and its effective rules.
type TypeDetail struct {
	TypeSummary
	Implementation string                      `json:"implementation"`
	Children       []ChildRule                 `json:"children"`
	Parents        []ParentRule                `json:"parents"`
	Requirements   []metadata.ChildRequirement `json:"requirements"`
}

// PlacementResult is the answer to a placement query.
type PlacementResult struct {
	Parent  string `json:"parent"`
	Child   string `json:"child"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type handler struct {
	src    Source
	logger *zap.Logger
}

// NewRouter builds the HTTP handler. events, when non-nil, is mounted at
// /api/events.
func NewRouter(src Source, events http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{src: src, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if events != nil {
			r.Handle("/events", events)
		}
		r.Group(func(r chi.Router) {
			r.Use(h.requireRegistry)
			r.Get("/types", h.listTypes)
			r.Get("/types/{type}/{subType}", h.getType)
			r.Get("/health", h.health)
			r.Get("/stats", h.stats)
			r.Get("/placement", h.placement)
		})
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func (h *handler) requireRegistry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.src.Registry() == nil {
			renderJSON(w, http.StatusServiceUnavailable, &ErrorResponse{
				Error:   "error",
				Message: "registry not loaded",
				Code:    errorCodeFromStatus(http.StatusServiceUnavailable),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func summarize(def *metadata.TypeDefinition) TypeSummary {
	return TypeSummary{
		Name:        def.QualifiedName(),
		Type:        def.Type(),
		SubType:     def.SubType(),
		Parent:      def.ParentQualifiedName(),
		Resolved:    def.IsResolved(),
		Description: def.Description(),
	}
}

func (h *handler) listTypes(w http.ResponseWriter, r *http.Request) {
	reg := h.src.Registry()
	var defs []*metadata.TypeDefinition
	if family := r.URL.Query().Get("family"); family != "" {
		defs = reg.TypesOf(family)
	} else {
		defs = reg.Definitions()
	}

	out := make([]TypeSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, summarize(def))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	renderJSON(w, http.StatusOK, out)
}

func (h *handler) getType(w http.ResponseWriter, r *http.Request) {
	reg := h.src.Registry()
	def, err := reg.FindType(chi.URLParam(r, "type"), chi.URLParam(r, "subType"))
	if err != nil {
		renderError(w, http.StatusNotFound, err)
		return
	}

	detail := TypeDetail{
		TypeSummary:    summarize(def),
		Implementation: def.Implementation().Name,
		Children:       []ChildRule{},
		Parents:        []ParentRule{},
		Requirements:   reg.ChildRequirements(def.Type(), def.SubType()),
	}
	for _, c := range def.DirectAcceptsChildren() {
		detail.Children = append(detail.Children, ChildRule{AcceptsChildren: c})
	}
	for _, c := range def.InheritedAcceptsChildren() {
		detail.Children = append(detail.Children, ChildRule{AcceptsChildren: c, Inherited: true})
	}
	for _, p := range def.DirectAcceptsParents() {
		detail.Parents = append(detail.Parents, ParentRule{AcceptsParents: p})
	}
	for _, p := range def.InheritedAcceptsParents() {
		detail.Parents = append(detail.Parents, ParentRule{AcceptsParents: p, Inherited: true})
	}
	if detail.Requirements == nil {
		detail.Requirements = []metadata.ChildRequirement{}
	}
	renderJSON(w, http.StatusOK, detail)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	report := h.src.Registry().ValidateConsistency()
	status := http.StatusOK
	if len(report.Errors) > 0 {
		status = http.StatusConflict
	}
	renderJSON(w, status, struct {
		Status string `json:"status"`
		*metadata.HealthReport
	}{report.Status(), report})
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, h.src.Registry().Stats())
}

func (h *handler) placement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("parent") == "" || q.Get("child") == "" {
		renderJSON(w, http.StatusBadRequest, &ErrorResponse{
			Error:   "error",
			Message: "parent and child query parameters are required",
			Code:    errorCodeFromStatus(http.StatusBadRequest),
		})
		return
	}
	parent, err := catalog.ParseNode(q.Get("parent"))
	if err != nil {
		renderError(w, http.StatusBadRequest, err)
		return
	}
	child, err := catalog.ParseNode(q.Get("child"))
	if err != nil {
		renderError(w, http.StatusBadRequest, err)
		return
	}

	result := PlacementResult{Parent: parent.String(), Child: child.String(), Allowed: true}
	err = catalog.CheckPlacement(h.src.Registry(), parent, child)
	var violation *metadata.PlacementViolation
	switch {
	case err == nil:
	case errors.As(err, &violation):
		result.Allowed = false
		result.Reason = violation.Reason
	default:
		renderError(w, http.StatusBadRequest, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}
