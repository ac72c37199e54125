package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000
	maxLineBytes  = 1 << 20
)

// fileResult holds the items decoded from a single file.
type fileResult struct {
	items   []catalog.Item
	invalid int
}

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing gzip JSON-lines food item feeds")
	flag.StringVar(&pattern, "pattern", "*.jsonl.gz", "glob of feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, filepath.Join(dataDir, pattern), databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, glob, databaseURL string) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrapf(err, "glob %s", glob)
	}
	if len(files) == 0 {
		slog.Info("no feed files found", slog.String("glob", glob))
		return nil
	}
	sort.Strings(files)

	// Pass 1: decode every feed concurrently.
	slog.Info("pass 1: decoding feeds", slog.Int("files", len(files)))

	results, err := decodeFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "decode feeds")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	items := postgres.NewItemRepository(pool)
	svc := catalog.NewService(postgres.NewShopRepository(pool), items)

	// Pass 2: skip items already listed, then insert the rest in file order.
	slog.Info("pass 2: loading existing items")

	existing, err := items.ListItems(ctx, catalog.ItemFilter{})
	if err != nil {
		return errors.Wrap(err, "list existing items")
	}
	seen := newItemSet(len(existing))
	for _, it := range existing {
		seen.add(it.ShopID, it.Name)
	}

	return writeItems(ctx, svc, seen, results)
}

// decodeFeeds decodes each file in its own goroutine.
func decodeFeeds(ctx context.Context, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(decodeFile(ctx, i, f, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeFile(ctx context.Context, idx int, path string, results []fileResult) func() error {
	return func() error {
		var (
			res  fileResult
			line int
		)
		d := jx.DecodeBytes(nil)

		if err := streamGzFile(ctx, path, func(raw []byte) {
			line++
			if len(strings.TrimSpace(string(raw))) == 0 {
				return
			}
			d.ResetBytes(raw)
			it, err := decodeItem(d)
			if err != nil {
				res.invalid++
				slog.Warn("skipping invalid record",
					slog.String("file", filepath.Base(path)),
					slog.Int("line", line),
					slog.String("error", err.Error()),
				)
				return
			}
			res.items = append(res.items, it)
		}); err != nil {
			return errors.Wrapf(err, "decode file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.String("file", filepath.Base(path)),
			slog.Int("items", len(res.items)),
			slog.Int("invalid", res.invalid),
		)

		results[idx] = res
		return nil
	}
}

// decodeItem reads one feed record:
//
//	{"shopId":1,"name":"Loaf","price":"3.50","quantity":4,"category":"Bakery",
//	 "description":"","photo":"","tags":["vegan"],"latitude":6.9,"longitude":79.8}
func decodeItem(d *jx.Decoder) (catalog.Item, error) {
	var (
		it       catalog.Item
		lat, lon *float64
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "shopId":
			it.ShopID, err = d.Int64()
		case "name":
			it.Name, err = d.Str()
		case "description":
			it.Description, err = d.Str()
		case "photo":
			it.Photo, err = d.Str()
		case "category":
			it.Category, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "price":
			it.Price, err = decodePrice(d)
		case "tags":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				it.Tags = append(it.Tags, s)
				return err
			})
		case "latitude":
			lat, err = decodeCoord(d)
		case "longitude":
			lon, err = decodeCoord(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	})
	if err != nil {
		return catalog.Item{}, err
	}
	if lat != nil && lon != nil {
		it.Location = &catalog.Location{Latitude: *lat, Longitude: *lon}
	}
	return it, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

func decodeCoord(d *jx.Decoder) (*float64, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Float64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// itemSet tracks (shop, name) pairs. The bloom filter answers most lookups;
// positives are confirmed against the exact set.
type itemSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newItemSet(existing int) *itemSet {
	return &itemSet{
		filter: bloom.NewWithEstimates(max(bloomCapacity, uint(existing)*2), bloomFPR),
		exact:  make(map[string]struct{}, existing),
	}
}

func itemKey(shopID int64, name string) string {
	return strconv.FormatInt(shopID, 10) + "\x00" + strings.ToLower(strings.TrimSpace(name))
}

func (s *itemSet) add(shopID int64, name string) {
	k := itemKey(shopID, name)
	s.filter.AddString(k)
	s.exact[k] = struct{}{}
}

func (s *itemSet) contains(shopID int64, name string) bool {
	k := itemKey(shopID, name)
	if !s.filter.TestString(k) {
		return false
	}
	_, ok := s.exact[k]
	return ok
}

// writeItems inserts decoded items that are not yet listed. Records for
// unknown shops or failing validation are skipped.
func writeItems(ctx context.Context, svc *catalog.Service, seen *itemSet, results []fileResult) error {
	var inserted, duplicates, rejected int

	for _, r := range results {
		for _, it := range r.items {
			if seen.contains(it.ShopID, it.Name) {
				duplicates++
				continue
			}
			if err := svc.CreateItem(ctx, &it); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, catalog.ErrShopNotFound) || isValidation(err) {
					rejected++
					slog.Warn("skipping item",
						slog.Int64("shop_id", it.ShopID),
						slog.String("name", it.Name),
						slog.String("error", err.Error()),
					)
					continue
				}
				return errors.Wrapf(err, "insert item %q", it.Name)
			}
			seen.add(it.ShopID, it.Name)

			inserted++
			if inserted%progressEvery == 0 {
				slog.Info("write progress", slog.Int("inserted", inserted))
			}
		}
	}

	slog.Info("pass 2 complete",
		slog.Int("inserted", inserted),
		slog.Int("duplicates", duplicates),
		slog.Int("rejected", rejected),
	)
	return nil
}

func isValidation(err error) bool {
	for _, target := range []error{
		catalog.ErrEmptyName,
		catalog.ErrNegativePrice,
		catalog.ErrNegativeQuantity,
		catalog.ErrInvalidShopID,
		catalog.ErrInvalidLocation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// streamGzFile opens a gzip-compressed file and calls fn for each line. The
// slice passed to fn is only valid until fn returns.
func streamGzFile(ctx context.Context, path string, fn func(line []byte)) error {
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
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
