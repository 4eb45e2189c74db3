// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hearthshop/hearthshop/internal/shop"
)

func testProduct(owner ulid.ULID) *shop.Product {
	return &shop.Product{
		ID:          ulid.Make(),
		Title:       "Kettle",
		ImageURL:    "https://img.example.com/kettle.png",
		Price:       24.99,
		Description: "A stovetop kettle.",
		CreatedBy:   owner,
	}
}

func TestHandleIndex(t *testing.T) {
	t.Run("lists the catalog for anonymous visitors", func(t *testing.T) {
		ts := newTestServer(t)

		owner := ulid.Make()
		ts.products.On("List", mock.Anything).Return([]*shop.Product{
			testProduct(owner),
		}, nil)

		rec := ts.do(httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Kettle")
	})
}

func TestAdminGuard(t *testing.T) {
	t.Run("anonymous browser requests redirect to login", func(t *testing.T) {
		ts := newTestServer(t)

		for _, req := range []*http.Request{
			httptest.NewRequest("GET", "/admin/products", nil),
			httptest.NewRequest("GET", "/admin/add-product", nil),
			httptest.NewRequest("GET", "/admin/edit-product/"+ulid.Make().String(), nil),
			postForm("/admin/add-product", url.Values{}),
			postForm("/admin/edit-product", url.Values{}),
		} {
			rec := ts.do(req)
			assert.Equal(t, http.StatusFound, rec.Code, req.Method+" "+req.URL.Path)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		}
	})

	t.Run("anonymous delete answers 401 JSON", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest("DELETE", "/admin/product/"+ulid.Make().String(), nil)
		rec := ts.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Not authenticated."}`, rec.Body.String())
	})

	t.Run("guard runs before form validation", func(t *testing.T) {
		ts := newTestServer(t)

		// An empty form would fail every validation rule, but the anonymous
		// request never reaches the validator.
		rec := ts.do(postForm("/admin/add-product", url.Values{"title": {""}}))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestHandleAddProduct(t *testing.T) {
	valid := url.Values{
		"title":       {"Kettle"},
		"imageUrl":    {"https://img.example.com/kettle.png"},
		"price":       {"24.99"},
		"description": {"A stovetop kettle."},
	}

	t.Run("valid form creates the product owned by the admin", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := postForm("/admin/add-product", valid)
		ts.login(t, req, user)
		ts.products.On("Create", mock.Anything, mock.MatchedBy(func(p *shop.Product) bool {
			return p.Title == "Kettle" && p.CreatedBy == user.ID
		})).Return(nil)

		rec := ts.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/products", rec.Header().Get("Location"))
	})

	t.Run("invalid form re-renders with the first error", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := postForm("/admin/add-product", url.Values{
			"title":       {"ab"},
			"imageUrl":    {"https://img.example.com/kettle.png"},
			"price":       {"free"},
			"description": {"A stovetop kettle."},
		})
		ts.login(t, req, user)

		rec := ts.do(req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Title must be at least 3 characters long.")
	})

	t.Run("malformed image URL is accepted on add", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := postForm("/admin/add-product", url.Values{
			"title":       {"Kettle"},
			"imageUrl":    {"not a url"},
			"price":       {"24.99"},
			"description": {"A stovetop kettle."},
		})
		ts.login(t, req, user)
		ts.products.On("Create", mock.Anything, mock.Anything).Return(nil)

		rec := ts.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestHandleEditProduct(t *testing.T) {
	t.Run("edit page pre-fills the form", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)
		product := testProduct(user.ID)

		req := httptest.NewRequest("GET", "/admin/edit-product/"+product.ID.String(), nil)
		ts.login(t, req, user)
		ts.products.On("GetByID", mock.Anything, product.ID).Return(product, nil)

		rec := ts.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), product.Title)
		assert.Contains(t, rec.Body.String(), product.ID.String())
	})

	t.Run("edit page for an unknown product redirects home", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)
		id := ulid.Make()

		req := httptest.NewRequest("GET", "/admin/edit-product/"+id.String(), nil)
		ts.login(t, req, user)
		ts.products.On("GetByID", mock.Anything, id).Return(nil, shop.ErrNotFound)

		rec := ts.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("edit page with an unparseable id redirects home", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := httptest.NewRequest("GET", "/admin/edit-product/not-a-ulid", nil)
		ts.login(t, req, user)

		rec := ts.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("valid edit updates the product", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)
		product := testProduct(user.ID)

		req := postForm("/admin/edit-product", url.Values{
			"productId":   {product.ID.String()},
			"title":       {"Copper Kettle"},
			"imageUrl":    {"https://img.example.com/copper.png"},
			"price":       {"34.99"},
			"description": {"A copper stovetop kettle."},
		})
		ts.login(t, req, user)
		ts.products.On("GetByID", mock.Anything, product.ID).Return(product, nil)
		ts.products.On("Update", mock.Anything, mock.MatchedBy(func(p *shop.Product) bool {
			return p.ID == product.ID && p.Title == "Copper Kettle"
		})).Return(nil)

		rec := ts.do(req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/products", rec.Header().Get("Location"))
	})

	t.Run("malformed image URL is rejected on edit", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := postForm("/admin/edit-product", url.Values{
			"productId":   {ulid.Make().String()},
			"title":       {"Kettle"},
			"imageUrl":    {"not a url"},
			"price":       {"24.99"},
			"description": {"A stovetop kettle."},
		})
		ts.login(t, req, user)

		rec := ts.do(req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Enter a valid uri")
	})
}

func TestHandleDeleteProduct(t *testing.T) {
	t.Run("successful delete answers JSON", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)
		id := ulid.Make()

		req := httptest.NewRequest("DELETE", "/admin/product/"+id.String(), nil)
		ts.login(t, req, user)
		ts.products.On("Delete", mock.Anything, id).Return(nil)

		rec := ts.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Success!"}`, rec.Body.String())
	})

	t.Run("failed delete answers 500 JSON", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)
		id := ulid.Make()

		req := httptest.NewRequest("DELETE", "/admin/product/"+id.String(), nil)
		ts.login(t, req, user)
		ts.products.On("Delete", mock.Anything, id).Return(shop.ErrNotFound)

		rec := ts.do(req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"message":"Deleting product failed."}`, rec.Body.String())
	})

	t.Run("unparseable id answers 422 JSON", func(t *testing.T) {
		ts := newTestServer(t)
		user := testUser(t)

		req := httptest.NewRequest("DELETE", "/admin/product/not-a-ulid", nil)
		ts.login(t, req, user)

		rec := ts.do(req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"message":"Deleting product failed."}`, rec.Body.String())
	})
}

func TestHandleAdminProducts(t *testing.T) {
	ts := newTestServer(t)
	user := testUser(t)

	req := httptest.NewRequest("GET", "/admin/products", nil)
	ts.login(t, req, user)
	ts.products.On("List", mock.Anything).Return([]*shop.Product{
		testProduct(user.ID),
	}, nil)

	rec := ts.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kettle")
}
