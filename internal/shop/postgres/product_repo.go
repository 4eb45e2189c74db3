// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package postgres implements the shop repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hearthshop/hearthshop/internal/shop"
)

// DB abstracts query execution so the repository works against
// *pgxpool.Pool in production and pgxmock in unit tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository implements shop.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(pool DB) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create stores a new product.
func (r *ProductRepository) Create(ctx context.Context, product *shop.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, title, image_url, price, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		product.ID.String(),
		product.Title,
		product.ImageURL,
		product.Price,
		product.Description,
		product.CreatedBy.String(),
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PRODUCT_CREATE_FAILED").
			With("operation", "insert product").
			With("title", product.Title).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id ulid.ULID) (*shop.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, image_url, price, description, created_by, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id.String())

	product, err := r.scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRODUCT_NOT_FOUND").
			With("id", id.String()).
			Wrap(shop.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRODUCT_GET_BY_ID_FAILED").
			With("operation", "get product by id").
			With("id", id.String()).
			Wrap(err)
	}
	return product, nil
}

// List returns all products ordered by creation time, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]*shop.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, image_url, price, description, created_by, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("PRODUCT_LIST_FAILED").
			With("operation", "query products").
			Wrap(err)
	}
	defer rows.Close()

	var products []*shop.Product
	for rows.Next() {
		product, err := r.scanProduct(rows)
		if err != nil {
			return nil, oops.Code("PRODUCT_LIST_FAILED").
				With("operation", "scan product row").
				Wrap(err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PRODUCT_LIST_FAILED").
			With("operation", "iterate products").
			Wrap(err)
	}
	return products, nil
}

// Update updates an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *shop.Product) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE products SET
			title = $2,
			image_url = $3,
			price = $4,
			description = $5,
			updated_at = $6
		WHERE id = $1
	`,
		product.ID.String(),
		product.Title,
		product.ImageURL,
		product.Price,
		product.Description,
		product.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PRODUCT_UPDATE_FAILED").
			With("operation", "update product").
			With("id", product.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRODUCT_NOT_FOUND").
			With("id", product.ID.String()).
			Wrap(shop.ErrNotFound)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM products WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("PRODUCT_DELETE_FAILED").
			With("operation", "delete product").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRODUCT_NOT_FOUND").
			With("id", id.String()).
			Wrap(shop.ErrNotFound)
	}
	return nil
}

// scanProduct scans a single row into a Product.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *ProductRepository) scanProduct(row pgx.Row) (*shop.Product, error) {
	var (
		idStr        string
		title        string
		imageURL     string
		price        float64
		description  string
		createdByStr string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&idStr,
		&title,
		&imageURL,
		&price,
		&description,
		&createdByStr,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PRODUCT_SCAN_FAILED").
			With("operation", "scan product").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PRODUCT_INVALID_ID").
			With("operation", "parse product id").
			With("id", idStr).
			Wrap(err)
	}

	createdBy, err := ulid.Parse(createdByStr)
	if err != nil {
		return nil, oops.Code("PRODUCT_INVALID_OWNER_ID").
			With("operation", "parse created-by id").
			With("created_by", createdByStr).
			Wrap(err)
	}

	return &shop.Product{
		ID:          id,
		Title:       title,
		ImageURL:    imageURL,
		Price:       price,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// Compile-time interface check.
var _ shop.ProductRepository = (*ProductRepository)(nil)
