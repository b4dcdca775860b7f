package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/stylistio/tryon-backend/internal/models"
)

// ImageMountPath is the public URL prefix under which catalog product
// images are served. The stored 'image' column holds filenames relative to
// this mount.
const ImageMountPath = "/catalog-images"

// ErrStoreUnavailable is returned when the catalog database file is missing
// or unreachable. It maps to a 500 upstream.
var ErrStoreUnavailable = errors.New("catalog store unavailable")

// Store answers read-only product queries against the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore wraps an open connection pool. path is the on-disk location of
// the database file, re-checked on every query because the file is built
// and replaced out of band by the catalog scripts.
func NewStore(db *sql.DB, path string) *Store {
	return &Store{db: db, path: path}
}

// pricingColumns reports which of the optional e-commerce columns exist in
// the live schema. The catalog may predate the pricing migration, so the
// set is re-read per request rather than assumed static.
type pricingColumns struct {
	price         bool
	originalPrice bool
	buyURL        bool
}

func (s *Store) introspectColumns(ctx context.Context) (pricingColumns, error) {
	var cols pricingColumns

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(products)")
	if err != nil {
		return cols, fmt.Errorf("introspect products schema: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return cols, fmt.Errorf("scan schema row: %w", err)
		}
		switch name {
		case "price":
			cols.price = true
		case "original_price":
			cols.originalPrice = true
		case "buy_url":
			cols.buyURL = true
		}
	}
	return cols, rows.Err()
}

// ListProducts returns one page of products, optionally filtered by category
// (exact match, case-insensitive). Pagination is ordered by id so that
// repeating a query against an unchanged catalog yields identical pages.
func (s *Store) ListProducts(ctx context.Context, category string, limit, offset int) ([]models.Product, error) {
	// The database file is rebuilt in place by the offline scripts, so its
	// absence is an operational condition, not a programming error.
	if _, err := os.Stat(s.path); err != nil {
		return nil, ErrStoreUnavailable
	}

	cols, err := s.introspectColumns(ctx)
	if err != nil {
		return nil, err
	}

	var query strings.Builder
	query.WriteString("SELECT id, title, category, image")
	if cols.price {
		query.WriteString(", price")
	}
	if cols.originalPrice {
		query.WriteString(", original_price")
	}
	if cols.buyURL {
		query.WriteString(", buy_url")
	}
	query.WriteString(" FROM products")

	var args []interface{}
	if category != "" {
		query.WriteString(" WHERE LOWER(category) = LOWER(?)")
		args = append(args, category)
	}

	query.WriteString(" ORDER BY id LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var (
			p        models.Product
			image    string
			dbPrice  sql.NullFloat64
			dbOrig   sql.NullFloat64
			dbBuyURL sql.NullString
		)

		dest := []interface{}{&p.ID, &p.Title, &p.Category, &image}
		if cols.price {
			dest = append(dest, &dbPrice)
		}
		if cols.originalPrice {
			dest = append(dest, &dbOrig)
		}
		if cols.buyURL {
			dest = append(dest, &dbBuyURL)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		p.ImageURL = ImageMountPath + "/" + image

		if dbPrice.Valid {
			v := dbPrice.Float64
			p.Price = &v
		}
		if dbOrig.Valid {
			v := dbOrig.Float64
			p.OriginalPrice = &v
		}
		if dbBuyURL.Valid {
			v := dbBuyURL.String
			p.BuyURL = &v
		}

		applyDiscount(&p)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// applyDiscount fills in the derived discount percentage when both prices
// are usable. A zero original price leaves the field unset rather than
// dividing by zero.
func applyDiscount(p *models.Product) {
	if p.Price == nil || p.OriginalPrice == nil || *p.OriginalPrice == 0 {
		return
	}
	d := int(math.Floor((*p.OriginalPrice - *p.Price) / *p.OriginalPrice * 100))
	p.Discount = &d
}
