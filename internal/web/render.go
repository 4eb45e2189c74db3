// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package web provides the HTTP surface of the shop: auth pages, the public
// storefront, and the session-guarded admin product routes.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/hearthshop/hearthshop/internal/shop"
)

//go:embed templates/*.html
var templatesFS embed.FS

// page is the render context shared by all templates. Only the fields a
// given page reads need to be populated.
type page struct {
	Title        string
	Path         string
	ErrorMessage string
	LoggedIn     bool

	// Form echoes submitted values on 422 re-renders. Passwords are never
	// echoed.
	Form map[string]string

	Products []*shop.Product
	Product  *shop.Product
	Editing  bool

	// Hidden correlation fields for the new-password form.
	UserID     string
	ResetToken string
}

// renderer holds the parsed template set, one named template per page, each
// combined with the shared layout.
type renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var pageNames = []string{
	"index",
	"login",
	"signup",
	"reset",
	"new_password",
	"admin_products",
	"product_form",
	"error",
}

func newRenderer(logger *slog.Logger) (*renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templatesFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, oops.Code("TEMPLATE_PARSE_FAILED").
				With("page", name).
				Wrap(err)
		}
		pages[name] = tmpl
	}
	return &renderer{pages: pages, logger: logger}, nil
}

// render writes a page with the given status. Template execution errors after
// the status line is written can only be logged.
func (rn *renderer) render(w http.ResponseWriter, status int, name string, data page) {
	tmpl, ok := rn.pages[name]
	if !ok {
		rn.logger.Error("unknown template", "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		rn.logger.Error("template execution failed", "page", name, "error", err)
	}
}
