// Command catalog-import bulk-loads products from gzipped JSONL export files
// (one product per line) into the database. Files are streamed concurrently
// and rows are written in batches. Categories referenced by products are
// created on the fly. Safe to re-run: all writes are upserts.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/adiwarna/kasir-pos/internal/repository"
)

const (
	defaultBatchSize = 500
	progressEvery    = 10_000
)

// productLine is one JSONL record from an export file.
type productLine struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Category string          `json:"category"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
		batchSize   int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz export files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", defaultBatchSize, "rows per database batch")
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

	if err := run(ctx, dataDir, databaseURL, batchSize); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, batchSize int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := &importer{pool: pool, batchSize: batchSize}

	slog.Info("importing export files", slog.Int("files", len(files)))

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(imp.importFile(ctx, f))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import finished",
		slog.Int64("products", imp.imported.Load()),
		slog.Int64("skipped", imp.skipped.Load()),
	)

	return nil
}

type importer struct {
	pool      *pgxpool.Pool
	batchSize int
	imported  atomic.Int64
	skipped   atomic.Int64
}

func (imp *importer) importFile(ctx context.Context, path string) func() error {
	return func() error {
		batch := make([]productLine, 0, imp.batchSize)
		var lineNo int64

		err := streamGzLines(ctx, path, func(line []byte) error {
			lineNo++
			if lineNo%progressEvery == 0 {
				slog.Info("import progress",
					slog.String("file", filepath.Base(path)),
					slog.Int64("lines", lineNo),
				)
			}

			var p productLine
			if err := json.Unmarshal(line, &p); err != nil {
				slog.Warn("skipping malformed line",
					slog.String("file", filepath.Base(path)),
					slog.Int64("line", lineNo),
					slog.String("error", err.Error()),
				)
				imp.skipped.Add(1)
				return nil
			}
			if p.ID == "" || p.Name == "" || !p.Price.IsPositive() || p.Category == "" {
				imp.skipped.Add(1)
				return nil
			}

			batch = append(batch, p)
			if len(batch) >= imp.batchSize {
				if err := imp.flush(ctx, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "import %s", path)
		}

		if len(batch) > 0 {
			if err := imp.flush(ctx, batch); err != nil {
				return errors.Wrapf(err, "import %s", path)
			}
		}

		slog.Info("file imported",
			slog.String("file", filepath.Base(path)),
			slog.Int64("lines", lineNo),
		)

		return nil
	}
}

// flush upserts one batch of products in a single round trip. Categories are
// keyed by a slug derived from the category name so repeated imports converge
// on one row per name.
func (imp *importer) flush(ctx context.Context, products []productLine) error {
	b := &pgx.Batch{}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		catID := categorySlug(p.Category)
		if _, ok := seen[catID]; !ok {
			seen[catID] = struct{}{}
			b.Queue(`
				INSERT INTO categories (id, name) VALUES ($1, $2)
				ON CONFLICT (id) DO NOTHING`,
				catID, p.Category,
			)
		}
		b.Queue(`
			INSERT INTO products (id, name, price, image_url, category_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				price = EXCLUDED.price,
				image_url = EXCLUDED.image_url,
				category_id = EXCLUDED.category_id`,
			p.ID, p.Name, p.Price, p.ImageURL, catID,
		)
	}

	if err := imp.pool.SendBatch(ctx, b).Close(); err != nil {
		return errors.Wrap(err, "send batch")
	}

	imp.imported.Add(int64(len(products)))
	return nil
}

func categorySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return "cat-" + slug
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
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
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
