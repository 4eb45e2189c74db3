// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/hearthshop/hearthshop/internal/shop"
	"github.com/hearthshop/hearthshop/pkg/errutil"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.renderer.render(w, http.StatusOK, "index", page{
		Title:    "Shop",
		Path:     "/",
		LoggedIn: currentUser(r) != nil,
		Products: products,
	})
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.renderer.render(w, http.StatusOK, "admin_products", page{
		Title:    "Admin Products",
		Path:     "/admin/products",
		LoggedIn: true,
		Products: products,
	})
}

func (s *Server) handleAddProductPage(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, http.StatusOK, "product_form", page{
		Title:    "Add Product",
		Path:     "/admin/add-product",
		LoggedIn: true,
		Form:     map[string]string{},
	})
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	validateProduct(f, false)
	if !f.valid() {
		s.renderer.render(w, http.StatusUnprocessableEntity, "product_form", page{
			Title:        "Add Product",
			Path:         "/admin/add-product",
			ErrorMessage: f.firstError(),
			LoggedIn:     true,
			Form:         f.echo(),
		})
		return
	}

	price, _ := strconv.ParseFloat(f.get("price"), 64)
	user := currentUser(r)

	if _, err := s.products.Create(r.Context(),
		f.get("title"), f.get("imageUrl"), price, f.get("description"), user.ID); err != nil {
		s.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (s *Server) handleEditProductPage(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(mux.Vars(r)["productId"])
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	product, err := s.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.renderer.render(w, http.StatusOK, "product_form", page{
		Title:    "Edit Product",
		Path:     "/admin/edit-product",
		LoggedIn: true,
		Editing:  true,
		Form: map[string]string{
			"productId":   product.ID.String(),
			"title":       product.Title,
			"imageUrl":    product.ImageURL,
			"price":       strconv.FormatFloat(product.Price, 'f', -1, 64),
			"description": product.Description,
		},
	})
}

func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	validateProduct(f, true)
	if !f.valid() {
		s.renderer.render(w, http.StatusUnprocessableEntity, "product_form", page{
			Title:        "Edit Product",
			Path:         "/admin/edit-product",
			ErrorMessage: f.firstError(),
			LoggedIn:     true,
			Editing:      true,
			Form:         f.echo(),
		})
		return
	}

	id, err := ulid.Parse(f.get("productId"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	price, _ := strconv.ParseFloat(f.get("price"), 64)

	if _, err := s.products.Update(r.Context(), id,
		f.get("title"), f.get("imageUrl"), price, f.get("description")); err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := ulid.Parse(mux.Vars(r)["productId"])
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		//nolint:errcheck // best-effort JSON error body
		json.NewEncoder(w).Encode(map[string]string{"message": "Deleting product failed."})
		return
	}

	if err := s.products.Delete(r.Context(), id); err != nil {
		errutil.LogError(s.logger, "product delete failed", err)
		w.WriteHeader(http.StatusInternalServerError)
		//nolint:errcheck // best-effort JSON error body
		json.NewEncoder(w).Encode(map[string]string{"message": "Deleting product failed."})
		return
	}

	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort JSON success body
	json.NewEncoder(w).Encode(map[string]string{"message": "Success!"})
}
