package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Product Operations ─────────────────────────────────────────────────────

// InsertProduct adds a price list entry and sets p.ID.
func (db *DB) InsertProduct(ctx context.Context, p *domain.Product) error {
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO products (name, packing, retail_price, wholesale_price, barcode)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, nullString(p.Packing), p.RetailPrice, p.WholesalePrice, nullString(p.Barcode))
	if err != nil {
		return storageErr("insert product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("insert product", err)
	}
	p.ID = id
	return nil
}

// UpdateProduct overwrites every field of an existing product.
func (db *DB) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, packing = ?, retail_price = ?, wholesale_price = ?, barcode = ?
		WHERE id = ?
	`, p.Name, nullString(p.Packing), p.RetailPrice, p.WholesalePrice, nullString(p.Barcode), p.ID)
	if err != nil {
		return storageErr("update product", err)
	}
	return requireAffected(res, "product", p.ID)
}

// GetProduct returns domain.ErrNotFound when no row matches.
func (db *DB) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, name, packing, retail_price, wholesale_price, barcode
		FROM products WHERE id = ?
	`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get product", err)
	}
	return p, nil
}

// DeleteProduct removes a product.
func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete product", err)
	}
	return requireAffected(res, "product", id)
}

// SearchProducts matches query as a substring of name or barcode.
// An empty query returns the whole price list.
func (db *DB) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, packing, retail_price, wholesale_price, barcode
		FROM products
		WHERE ? = '' OR name LIKE ? ESCAPE '\' OR barcode LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE, id
	`, query, pattern, pattern)
	if err != nil {
		return nil, storageErr("search products", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storageErr("scan product", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search products", err)
	}
	return result, nil
}

// likeEscaper makes LIKE metacharacters in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanProduct(r rowScanner) (*domain.Product, error) {
	var (
		p                 domain.Product
		packing, barcode  sql.NullString
		retail, wholesale decimal.NullDecimal
	)
	if err := r.Scan(&p.ID, &p.Name, &packing, &retail, &wholesale, &barcode); err != nil {
		return nil, err
	}
	p.Packing = packing.String
	p.Barcode = barcode.String
	p.RetailPrice = retail.Decimal
	p.WholesalePrice = wholesale.Decimal
	return &p, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
