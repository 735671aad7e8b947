package filter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kinfilter/internal/domain/record"
	"kinfilter/pkg/logger"
)

var tracer = otel.Tracer("kinfilter/filter")

// ApplyOptions tunes a batch run.
type ApplyOptions struct {
	// Progress, when set, receives Begin/Step/End notifications.
	Progress Progress

	// Tree iterates hierarchical kinds with the tree cursor.
	Tree bool

	// DisableOptimization forces a full scan even when rule maps are available.
	DisableOptimization bool
}

// Apply evaluates the filter over the whole table and returns the matching handles.
//
// When mapped rules narrow the candidates, only those records are fetched and
// evaluated (in handle order); otherwise the kind's cursor is scanned.
// Either way every candidate goes through the full ApplyToOne.
func (f *Filter) Apply(ctx context.Context, db record.Database, opts ApplyOptions) ([]record.Handle, error) {
	var out []record.Handle
	err := f.run(ctx, db, opts, func(ctx context.Context, r *batch) error {
		if r.candidates != nil {
			r.mode = "candidates"
			for _, h := range r.candidates.Sorted() {
				data, err := f.kind.RawData(ctx, db, h)
				if err != nil {
					return fmt.Errorf("fetch %s %s: %w", f.kind.Kind, h, err)
				}
				ok, err := r.check(ctx, data)
				if err != nil {
					return err
				}
				if ok {
					out = append(out, h)
				}
			}
			return nil
		}

		r.mode = "scan"
		cur, err := f.kind.cursor(ctx, db, opts.Tree)
		if err != nil {
			return fmt.Errorf("open %s cursor: %w", f.kind.Kind, err)
		}
		defer cur.Close()

		for cur.Next() {
			ok, err := r.check(ctx, cur.Data())
			if err != nil {
				return err
			}
			if ok {
				out = append(out, cur.Handle())
			}
		}
		if err := cur.Err(); err != nil {
			return fmt.Errorf("iterate %s cursor: %w", f.kind.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FilterHandles keeps the handles of list whose records match, in input order.
func (f *Filter) FilterHandles(ctx context.Context, db record.Database, list []record.Handle, opts ApplyOptions) ([]record.Handle, error) {
	return FilterItems(ctx, f, db, list, func(h record.Handle) record.Handle { return h }, opts)
}

// FilterItems keeps the items of list whose record (found through key) matches.
// The surviving items are returned as given, in input order.
func FilterItems[T any](ctx context.Context, f *Filter, db record.Database, list []T, key func(T) record.Handle, opts ApplyOptions) ([]T, error) {
	var out []T
	err := f.run(ctx, db, opts, func(ctx context.Context, r *batch) error {
		r.mode = "list"
		for _, item := range list {
			h := key(item)
			if r.candidates != nil && !r.candidates.Contains(h) {
				r.step()
				continue
			}
			data, err := f.kind.RawData(ctx, db, h)
			if err != nil {
				return fmt.Errorf("fetch %s %s: %w", f.kind.Kind, h, err)
			}
			ok, err := r.check(ctx, data)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AtIndex returns a key function reading the handle at position i of a tuple.
func AtIndex(i int) func([]any) record.Handle {
	return func(tuple []any) record.Handle {
		if i < 0 || i >= len(tuple) {
			return ""
		}
		switch h := tuple[i].(type) {
		case record.Handle:
			return h
		case string:
			return record.Handle(h)
		}
		return ""
	}
}

// batch holds the state of one batch evaluation.
type batch struct {
	f          *Filter
	db         record.Database
	test       tester
	progress   Progress
	candidates HandleSet
	mode       string
	examined   int
	matched    int
}

func (r *batch) step() {
	r.examined++
	if r.progress != nil {
		r.progress.Step()
	}
}

func (r *batch) check(ctx context.Context, data record.Data) (bool, error) {
	r.step()
	res, err := r.test(ctx, r.db, data, r.f.rules)
	if err != nil {
		return false, err
	}
	ok := res != r.f.Invert
	if ok {
		r.matched++
	}
	return ok, nil
}

// run prepares the rules, computes the candidate set and reports progress around body.
// Rules that were prepared are reset exactly once, whatever body returns.
func (f *Filter) run(ctx context.Context, db record.Database, opts ApplyOptions, body func(context.Context, *batch) error) (err error) {
	if f.kind == nil {
		return ErrUnbound
	}
	ctx, span := tracer.Start(ctx, "filter.apply",
		trace.WithAttributes(
			attribute.String("filter.name", f.Name),
			attribute.String("filter.kind", string(f.kind.Kind)),
			attribute.String("filter.op", string(f.LogicalOp)),
			attribute.Bool("filter.invert", f.Invert),
		))
	defer span.End()

	test, err := f.tester()
	if err != nil {
		return err
	}
	// cycle check before any rule recurses into nested filters
	if _, err := walkFilters(f); err != nil {
		return err
	}

	var prepared []Rule
	defer func() {
		for _, rule := range prepared {
			rule.RequestReset()
		}
	}()
	for _, rule := range f.rules {
		if err := rule.RequestPrepare(ctx, db, opts.Progress); err != nil {
			logger.Warn(ctx, "rule prepare failed", "filter", f.Name, "error", err)
			return fmt.Errorf("prepare rules of %q: %w", f.Name, err)
		}
		prepared = append(prepared, rule)
	}

	r := &batch{f: f, db: db, test: test, progress: opts.Progress}
	if !opts.DisableOptimization {
		groups, err := walkFilters(f)
		if err != nil {
			return err
		}
		r.candidates = candidates(groups)
	}

	if opts.Progress != nil {
		total, err := f.kind.Count(ctx, db)
		if err != nil {
			return fmt.Errorf("count %s: %w", f.kind.Kind, err)
		}
		opts.Progress.Begin("Filter", "Applying ...", total)
		defer opts.Progress.End()
	}

	err = body(ctx, r)

	span.SetAttributes(
		attribute.String("filter.mode", r.mode),
		attribute.Int("filter.examined", r.examined),
		attribute.Int("filter.matched", r.matched),
	)
	logger.Debug(ctx, "filter applied",
		"filter", f.Name,
		"kind", f.kind.Kind,
		"mode", r.mode,
		"examined", r.examined,
		"matched", r.matched,
	)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
