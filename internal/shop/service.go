// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package shop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("not found")

// Service coordinates product management operations. Authentication is the
// web layer's job; every method here assumes an already-authorized caller.
type Service struct {
	products ProductRepository
	logger   *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if the repository is nil.
func NewService(products ProductRepository) (*Service, error) {
	return NewServiceWithLogger(products, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(products ProductRepository, logger *slog.Logger) (*Service, error) {
	if products == nil {
		return nil, oops.Errorf("products repository is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{products: products, logger: logger}, nil
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, title, imageURL string, price float64, description string, createdBy ulid.ULID) (*Product, error) {
	product, err := NewProduct(title, imageURL, price, description, createdBy)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, oops.Code("PRODUCT_CREATE_FAILED").
			With("operation", "create product").
			Wrap(err)
	}

	s.logger.Info("product created",
		"product_id", product.ID.String(), "created_by", createdBy.String())
	return product, nil
}

// Get retrieves a product by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("PRODUCT_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("PRODUCT_GET_FAILED").
			With("operation", "get product").
			With("id", id.String()).
			Wrap(err)
	}
	return product, nil
}

// List returns all products, newest first.
func (s *Service) List(ctx context.Context) ([]*Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, oops.Code("PRODUCT_LIST_FAILED").
			With("operation", "list products").
			Wrap(err)
	}
	return products, nil
}

// Update validates and stores changed product fields.
func (s *Service) Update(ctx context.Context, id ulid.ULID, title, imageURL string, price float64, description string) (*Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Title = title
	product.ImageURL = imageURL
	product.Price = price
	product.Description = description
	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, oops.Code("PRODUCT_UPDATE_FAILED").
			With("operation", "update product").
			With("id", id.String()).
			Wrap(err)
	}

	s.logger.Info("product updated", "product_id", id.String())
	return product, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("PRODUCT_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return oops.Code("PRODUCT_DELETE_FAILED").
			With("operation", "delete product").
			With("id", id.String()).
			Wrap(err)
	}

	s.logger.Info("product deleted", "product_id", id.String())
	return nil
}
