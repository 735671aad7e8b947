// Command filter applies a custom filter to a record database and prints the
// matching records.
//
//	filter -filters custom_filters.xml -namespace Person -name "Smith men"
//	filter -db postgres://... -namespace Place -name all -tree
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	appctx "kinfilter/internal/core/context"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/filter/rules"
	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/cache"
	"kinfilter/internal/infrastructure/filterfile"
	"kinfilter/internal/infrastructure/storage"
	"kinfilter/pkg/logger"
)

type options struct {
	dsn        string
	filters    string
	namespace  string
	name       string
	tree       bool
	noOptimize bool
	publish    bool
	every      int
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dsn, "db", os.Getenv("DATABASE_URL"), "PostgreSQL DSN; empty uses the built-in demo data")
	fs.StringVar(&o.filters, "filters", os.Getenv("FILTERS_FILE"), "custom filter definitions (.xml, .gz, .zst)")
	fs.StringVar(&o.namespace, "namespace", "Person", "record kind to filter")
	fs.StringVar(&o.name, "name", rules.EntireDatabaseName, "filter name")
	fs.BoolVar(&o.tree, "tree", false, "iterate places and citations in tree order")
	fs.BoolVar(&o.noOptimize, "no-optimize", false, "scan every record even when rules narrow the candidates")
	fs.BoolVar(&o.publish, "publish", false, "store the definitions file in the database and exit")
	fs.IntVar(&o.every, "progress", 1000, "log progress every n records")
	fs.StringVar(&o.logLevel, "log-level", "warn", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.publish && (o.dsn == "" || o.filters == "") {
		return o, errors.New("-publish needs -db and -filters")
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: opts.logLevel, OutputPaths: []string{"stderr"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = appctx.WithTrace(logger.WithLogger(ctx, log), appctx.NewTraceContext())

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "filter: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	kind, err := record.ParseKind(opts.namespace)
	if err != nil {
		return err
	}

	lib := filter.NewLibrary()
	if opts.filters != "" {
		if lib, err = filterfile.LoadFile(opts.filters); err != nil {
			return fmt.Errorf("load %s: %w", opts.filters, err)
		}
	}

	store, err := storage.Open(ctx, storage.Options{DSN: opts.dsn, EnsureSchema: opts.publish})
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.publish {
		libCache := cache.NewLibraryCache(store.Pool.Pool, lib)
		if err := libCache.EnsureSchema(ctx); err != nil {
			return err
		}
		return libCache.Store(ctx, lib)
	}

	f, err := lookup(lib, kind, opts.name)
	if err != nil {
		return err
	}

	applyOpts := filter.ApplyOptions{
		Progress:            filter.NewLogProgress(logger.FromContext(ctx), opts.every),
		Tree:                opts.tree,
		DisableOptimization: opts.noOptimize,
	}
	return store.Snapshotter.Snapshot(ctx, func(ctx context.Context) error {
		matched, err := f.Apply(ctx, store.DB, applyOpts)
		if err != nil {
			return err
		}
		for _, h := range matched {
			rec, err := store.DB.Get(ctx, kind, h)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(stdout, "%s\t%s\n", rec.GrampsID, h); err != nil {
				return err
			}
		}
		return nil
	})
}

func lookup(lib *filter.Library, kind record.Kind, name string) (*filter.Filter, error) {
	if name == rules.EntireDatabaseName {
		return rules.EntireDatabase(kind), nil
	}
	return lib.Lookup(kind, name)
}
