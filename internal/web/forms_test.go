// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRequest(t *testing.T, values url.Values) *form {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f, err := parseForm(req)
	require.NoError(t, err)
	return f
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantError string
	}{
		{
			name:     "valid",
			email:    "shopper@example.com",
			password: "secret1",
		},
		{
			name:      "invalid email",
			email:     "not-an-email",
			password:  "secret1",
			wantError: "Please enter a valid email.",
		},
		{
			name:      "short password",
			email:     "shopper@example.com",
			password:  "abc",
			wantError: "Password must be at least 6 characters long.",
		},
		{
			name:      "both invalid reports the email error first",
			email:     "not-an-email",
			password:  "abc",
			wantError: "Please enter a valid email.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := formRequest(t, url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			})
			validateLogin(f)

			if tt.wantError == "" {
				assert.True(t, f.valid())
			} else {
				assert.False(t, f.valid())
				assert.Equal(t, tt.wantError, f.firstError())
			}
		})
	}
}

func TestValidateSignup(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := formRequest(t, url.Values{
			"email":           {"shopper@example.com"},
			"password":        {"secret1"},
			"confirmPassword": {"secret1"},
		})
		validateSignup(f)
		assert.True(t, f.valid())
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		f := formRequest(t, url.Values{
			"email":           {"shopper@example.com"},
			"password":        {"secret1"},
			"confirmPassword": {"secret2"},
		})
		validateSignup(f)
		assert.False(t, f.valid())
		assert.Equal(t, "Passwords have to match!", f.firstError())
	})
}

func TestValidateProduct(t *testing.T) {
	valid := url.Values{
		"title":       {"Kettle"},
		"imageUrl":    {"https://img.example.com/kettle.png"},
		"price":       {"24.99"},
		"description": {"A stovetop kettle."},
	}

	clone := func(overrides map[string]string) url.Values {
		values := url.Values{}
		for key, vs := range valid {
			values[key] = vs
		}
		for key, v := range overrides {
			values.Set(key, v)
		}
		return values
	}

	t.Run("valid add form", func(t *testing.T) {
		f := formRequest(t, valid)
		validateProduct(f, false)
		assert.True(t, f.valid())
	})

	t.Run("short title", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"title": "ab"}))
		validateProduct(f, false)
		assert.Equal(t, "Title must be at least 3 characters long.", f.firstError())
	})

	t.Run("missing image URL", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"imageUrl": ""}))
		validateProduct(f, false)
		assert.Equal(t, "Enter a valid uri", f.firstError())
	})

	t.Run("add form accepts a malformed image URL", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"imageUrl": "not a url"}))
		validateProduct(f, false)
		assert.True(t, f.valid())
	})

	t.Run("edit form rejects a malformed image URL", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"imageUrl": "not a url"}))
		validateProduct(f, true)
		assert.False(t, f.valid())
		assert.Equal(t, "Enter a valid uri", f.firstError())
	})

	t.Run("non-numeric price", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"price": "free"}))
		validateProduct(f, false)
		assert.Equal(t, "Enter numbers only", f.firstError())
	})

	t.Run("description out of range", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"description": "short"}))
		validateProduct(f, false)
		assert.Equal(t, "Description must be between 8 and 200 characters.", f.firstError())
	})

	t.Run("errors report in field declaration order", func(t *testing.T) {
		f := formRequest(t, clone(map[string]string{"title": "ab", "price": "free"}))
		validateProduct(f, false)
		assert.Equal(t, "Title must be at least 3 characters long.", f.firstError())
	})
}

func TestForm_Echo(t *testing.T) {
	f := formRequest(t, url.Values{
		"email":           {"  shopper@example.com  "},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})
	validateSignup(f)

	echoed := f.echo()
	assert.Equal(t, "shopper@example.com", echoed["email"], "values are trimmed")
	assert.NotContains(t, echoed, "password")
	assert.NotContains(t, echoed, "confirmPassword")
}
