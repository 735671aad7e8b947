package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"kinfilter/internal/core/locale"
	"kinfilter/internal/core/tx"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/filter/rules"
	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/http/v1/dto"
	"kinfilter/pkg/logger"
)

// progressEvery is how many records pass between progress log lines.
const progressEvery = 1000

// FilterHandler lists and applies custom filters.
type FilterHandler struct {
	*BaseHandler
	lib    *filter.Library
	db     record.Database
	snap   tx.Snapshotter
	runner *filter.Runner
}

// NewFilterHandler creates a filter handler. Every batch runs inside one snapshot of db,
// one at a time through runner, since library filters are shared between requests.
func NewFilterHandler(base *BaseHandler, lib *filter.Library, db record.Database, snap tx.Snapshotter, runner *filter.Runner) *FilterHandler {
	return &FilterHandler{BaseHandler: base, lib: lib, db: db, snap: snap, runner: runner}
}

// List returns the filters of a namespace, the built-in one first.
// GET /api/v1/filters/:namespace
func (h *FilterHandler) List(c *gin.Context) {
	kind, err := record.ParseKind(c.Param("namespace"))
	if err != nil {
		h.Error(c, err)
		return
	}

	loc := locale.FromContext(c.Request.Context())
	items := []dto.FilterResponse{dto.FromFilter(rules.EntireDatabase(kind), loc, true)}
	for _, f := range h.lib.List(kind) {
		items = append(items, dto.FromFilter(f, loc, false))
	}
	h.OK(c, dto.NewListResponse(items))
}

// Get returns one filter.
// GET /api/v1/filters/:namespace/:name
func (h *FilterHandler) Get(c *gin.Context) {
	f, builtin, err := h.lookup(c.Param("namespace"), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromFilter(f, locale.FromContext(c.Request.Context()), builtin))
}

// Apply runs a named filter.
// POST /api/v1/filters/:namespace/:name/apply
func (h *FilterHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	f, _, err := h.lookup(c.Param("namespace"), c.Param("name"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.run(c, f, req)
}

// ApplyAdHoc builds a filter from the request body and runs it. Nested
// filter rules resolve names through the library.
// POST /api/v1/filters/:namespace/apply
func (h *FilterHandler) ApplyAdHoc(c *gin.Context) {
	var req dto.AdHocFilterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := filter.NewForNamespace(c.Param("namespace"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if req.Function != "" {
		op, err := filter.ParseOp(req.Function)
		if err != nil {
			h.Error(c, err)
			return
		}
		f.LogicalOp = op
	}
	f.SetInvert(req.Invert)

	kind := f.Kind().Kind
	for _, rd := range req.Rules {
		rule, err := rules.Build(kind, rd.Class, rules.Args{
			Values:   rd.Values,
			UseRegex: rd.UseRegex,
			Library:  h.lib,
		})
		if err != nil {
			h.Error(c, err)
			return
		}
		f.AddRule(rule)
	}
	h.run(c, f, req.ApplyRequest)
}

// RuleClasses describes the rule classes usable in a namespace.
// GET /api/v1/rules/:namespace
func (h *FilterHandler) RuleClasses(c *gin.Context) {
	kind, err := record.ParseKind(c.Param("namespace"))
	if err != nil {
		h.Error(c, err)
		return
	}

	loc := locale.FromContext(c.Request.Context())
	var items []dto.RuleClassResponse
	for _, class := range rules.Classes(kind) {
		info, _ := rules.Describe(class)
		labels := make([]string, len(info.Labels))
		for i, l := range info.Labels {
			labels[i] = loc.Gettext(l)
		}
		items = append(items, dto.RuleClassResponse{
			Class:       info.Class,
			Name:        loc.Gettext(info.Name),
			Description: loc.Gettext(info.Description),
			Category:    loc.Gettext(info.Category),
			Labels:      labels,
		})
	}
	h.OK(c, dto.NewListResponse(items))
}

func (h *FilterHandler) lookup(namespace, name string) (*filter.Filter, bool, error) {
	kind, err := record.ParseKind(namespace)
	if err != nil {
		return nil, false, err
	}
	if name == rules.EntireDatabaseName {
		return rules.EntireDatabase(kind), true, nil
	}
	f, err := h.lib.Lookup(kind, name)
	return f, false, err
}

func (h *FilterHandler) run(c *gin.Context, f *filter.Filter, req dto.ApplyRequest) {
	ctx := c.Request.Context()
	opts := filter.ApplyOptions{
		Progress:            filter.NewLogProgress(logger.FromContext(ctx), progressEvery),
		Tree:                req.Tree,
		DisableOptimization: req.DisableOptimization,
	}

	var matched []record.Handle
	err := h.runner.Run(ctx, func(ctx context.Context) error {
		return h.snap.Snapshot(ctx, func(ctx context.Context) error {
			var err error
			if req.Handles != nil {
				list := make([]record.Handle, len(req.Handles))
				for i, s := range req.Handles {
					list[i] = record.Handle(s)
				}
				matched, err = f.FilterHandles(ctx, h.db, list, opts)
			} else {
				matched, err = f.Apply(ctx, h.db, opts)
			}
			return err
		})
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = string(m)
	}
	h.OK(c, dto.ApplyResponse{
		Namespace: string(f.Kind().Kind),
		Filter:    f.Name,
		Handles:   out,
		Count:     len(out),
	})
}
