// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"encoding/base64"
	"net/http"
)

// flashCookie carries a read-once message across a redirect. The value is
// base64-encoded so arbitrary message text survives cookie encoding rules.
const flashCookie = "hearthshop_flash"

// setFlash stores a one-shot message for the next request.
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.URLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message, if any, and clears it. The
// message is returned as an explicit value for the caller to pass into the
// render context.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
