// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hearthshop/hearthshop/internal/auth"
	"github.com/hearthshop/hearthshop/internal/shop"
)

// form validates submitted fields with per-field chains. Each field records
// at most one error, and 422 re-renders report the first error in field
// declaration order.
type form struct {
	values map[string]string
	order  []string
	errors map[string]string
}

func parseForm(r *http.Request) (*form, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	f := &form{
		values: make(map[string]string),
		errors: make(map[string]string),
	}
	for key := range r.PostForm {
		f.values[key] = r.PostForm.Get(key)
	}
	return f, nil
}

// field starts a validation chain for name. The raw value is trimmed before
// any rule runs, matching how the route declarations trim every field.
func (f *form) field(name string) *fieldChain {
	trimmed := strings.TrimSpace(f.values[name])
	f.values[name] = trimmed
	f.order = append(f.order, name)
	return &fieldChain{form: f, name: name, value: trimmed}
}

func (f *form) get(name string) string {
	return f.values[name]
}

// valid reports whether every chain passed.
func (f *form) valid() bool {
	return len(f.errors) == 0
}

// firstError returns the first recorded error message in field order.
func (f *form) firstError() string {
	for _, name := range f.order {
		if msg, ok := f.errors[name]; ok {
			return msg
		}
	}
	return ""
}

// echo returns the submitted values for re-rendering, minus any password
// fields.
func (f *form) echo() map[string]string {
	out := make(map[string]string, len(f.values))
	for key, value := range f.values {
		if strings.Contains(strings.ToLower(key), "password") {
			continue
		}
		out[key] = value
	}
	return out
}

type fieldChain struct {
	form  *form
	name  string
	value string
}

func (c *fieldChain) fail(msg string) *fieldChain {
	if _, exists := c.form.errors[c.name]; !exists {
		c.form.errors[c.name] = msg
	}
	return c
}

func (c *fieldChain) required(msg string) *fieldChain {
	if c.value == "" {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) minLength(n int, msg string) *fieldChain {
	if len(c.value) < n {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) lengthBetween(min, max int, msg string) *fieldChain {
	if len(c.value) < min || len(c.value) > max {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) email(msg string) *fieldChain {
	if auth.ValidateEmail(c.value) != nil {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) float(msg string) *fieldChain {
	if _, err := strconv.ParseFloat(c.value, 64); err != nil {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) wellFormedURL(msg string) *fieldChain {
	u, err := url.Parse(c.value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c.fail(msg)
	}
	return c
}

func (c *fieldChain) equals(other, msg string) *fieldChain {
	if c.value != other {
		return c.fail(msg)
	}
	return c
}

// validateLogin applies the login field rules.
func validateLogin(f *form) {
	f.field("email").email("Please enter a valid email.")
	f.field("password").minLength(6, "Password must be at least 6 characters long.")
}

// validateSignup applies the signup field rules.
func validateSignup(f *form) {
	f.field("email").email("Please enter a valid email.")
	f.field("password").minLength(6, "Password must be at least 6 characters long.")
	f.field("confirmPassword").equals(f.get("password"), "Passwords have to match!")
}

// validateNewPassword applies the reset-confirm password rule.
func validateNewPassword(f *form) {
	f.field("password").minLength(6, "Password must be at least 6 characters long.")
}

// validateProduct applies the product field rules. Only the edit form checks
// that imageUrl is a well-formed URL; the add form accepts any non-empty
// value. The asymmetry is kept as-is.
func validateProduct(f *form, editing bool) {
	f.field("title").minLength(shop.MinTitleLength, "Title must be at least 3 characters long.")
	chain := f.field("imageUrl").required("Enter a valid uri")
	if editing {
		chain.wellFormedURL("Enter a valid uri")
	}
	f.field("price").float("Enter numbers only")
	f.field("description").lengthBetween(shop.MinDescriptionLength, shop.MaxDescriptionLength,
		"Description must be between 8 and 200 characters.")
}
