// Command catalog-ingest loads products from Open Food Facts JSONL dump
// files into PostgreSQL, so the storefront can serve its catalog without
// calling the search API on every page view.
//
// Dump files are gzip-compressed, one JSON product object per line. Files
// are streamed concurrently; a bloom filter keeps memory bounded while
// deduplicating product codes across files.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pantry-storefront/internal/domain/catalog"
	"github.com/xenking/pantry-storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 5_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	// Dump lines can exceed bufio's default 64K token limit.
	maxLineBytes = 4 << 20
)

func main() {
	var (
		dataDir     string
		databaseURL string
		limit       int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz dump files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&limit, "limit", 10_000, "maximum number of products to load")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, limit); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, limit int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("streaming dump files", slog.Int("files", len(files)), slog.Int("limit", limit))

	records, err := collectRecords(ctx, files, limit)
	if err != nil {
		return errors.Wrap(err, "collect records")
	}

	slog.Info("records collected", slog.Int("count", len(records)))

	if len(records) == 0 {
		slog.Info("no records to insert")
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeProducts(ctx, pool, records); err != nil {
		return errors.Wrap(err, "write products to database")
	}

	return nil
}

// collectRecords streams every file concurrently and fans results into a
// single collector, which deduplicates by code and stops at limit.
func collectRecords(ctx context.Context, files []string, limit int) ([]catalog.Record, error) {
	out := make(chan catalog.Record, 1024)

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanFile(ctx, i, f, out))
	}

	done := make(chan struct{})
	var records []catalog.Record
	go func() {
		defer close(done)
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		for r := range out {
			if len(records) >= limit {
				continue // keep draining so producers do not block
			}
			if seen.TestOrAddString(r.Code) {
				continue
			}
			records = append(records, r)
		}
	}()

	err := g.Wait()
	close(out)
	<-done
	if err != nil {
		return nil, err
	}
	return records, nil
}

func scanFile(ctx context.Context, idx int, path string, out chan<- catalog.Record) func() error {
	return func() error {
		var total, kept uint64

		if err := streamGzLines(ctx, path, func(line []byte) error {
			total++
			if total%progressEvery == 0 {
				slog.Info("scan progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", total),
					slog.Uint64("kept", kept),
				)
			}

			r, err := catalog.DecodeRecord(jx.DecodeBytes(line))
			if err != nil {
				// Dumps carry the odd malformed line; skip it.
				return nil
			}
			if !catalog.GeneralOK(r) {
				return nil
			}

			kept++
			select {
			case out <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d", idx+1)
		}

		slog.Info("scan complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", total),
			slog.Uint64("kept", kept),
		)
		return nil
	}
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeProducts replaces the products table contents with the collected
// records, pricing each one deterministically from its code.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, records []catalog.Record) error {
	slog.Info("writing products to database", slog.Int("count", len(records)))

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Code, r.Name, r.Brand, r.ImageURL, catalog.PriceFor(r.Code)})
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "TRUNCATE products"); err != nil {
		return errors.Wrap(err, "truncate products")
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"code", "name", "brand", "image_url", "price"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return errors.Wrap(err, "copy products")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}

	slog.Info("products written", slog.Int64("rows", n))
	return nil
}
