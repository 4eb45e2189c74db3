// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package shop provides the product catalog domain for Hearthshop.
package shop

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Product field constraints.
const (
	MinTitleLength       = 3
	MinDescriptionLength = 8
	MaxDescriptionLength = 200
)

// Product represents a catalog entry managed through the admin routes.
type Product struct {
	ID          ulid.ULID
	Title       string
	ImageURL    string
	Price       float64
	Description string
	CreatedBy   ulid.ULID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct creates a validated Product owned by the given admin user.
func NewProduct(title, imageURL string, price float64, description string, createdBy ulid.ULID) (*Product, error) {
	if createdBy.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("PRODUCT_INVALID_OWNER").Errorf("created-by user ID cannot be zero")
	}

	p := &Product{
		ID:          ulid.Make(),
		Title:       title,
		ImageURL:    imageURL,
		Price:       price,
		Description: description,
		CreatedBy:   createdBy,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// Validate checks the product fields against the catalog constraints.
// The HTTP form layer rejects bad input first with verbatim field messages;
// this is the domain-level backstop for non-HTTP callers.
func (p *Product) Validate() error {
	if len(p.Title) < MinTitleLength {
		return oops.Code("PRODUCT_INVALID_TITLE").
			With("min", MinTitleLength).
			Errorf("title must be at least %d characters", MinTitleLength)
	}
	if p.ImageURL == "" {
		return oops.Code("PRODUCT_INVALID_IMAGE_URL").Errorf("image URL cannot be empty")
	}
	if p.Price < 0 {
		return oops.Code("PRODUCT_INVALID_PRICE").Errorf("price cannot be negative")
	}
	if len(p.Description) < MinDescriptionLength || len(p.Description) > MaxDescriptionLength {
		return oops.Code("PRODUCT_INVALID_DESCRIPTION").
			With("min", MinDescriptionLength).
			With("max", MaxDescriptionLength).
			Errorf("description must be between %d and %d characters", MinDescriptionLength, MaxDescriptionLength)
	}
	return nil
}

// ProductRepository manages product persistence.
type ProductRepository interface {
	// Create stores a new product.
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Product, error)

	// List returns all products ordered by creation time, newest first.
	List(ctx context.Context) ([]*Product, error)

	// Update updates an existing product.
	Update(ctx context.Context, product *Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id ulid.ULID) error
}
