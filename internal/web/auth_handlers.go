// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hearthshop/hearthshop/internal/mail"
	"github.com/hearthshop/hearthshop/pkg/errutil"
)

// errorCode extracts the oops error code, or empty for plain errors.
func errorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// serverError renders the 500 page. Persistence and other unexpected
// failures end up here.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.LogError(s.logger, "request failed", err)
	s.renderer.render(w, http.StatusInternalServerError, "error", page{
		Title:        "An Error Occurred!",
		Path:         r.URL.Path,
		ErrorMessage: "Something went wrong. Please try again later.",
		LoggedIn:     currentUser(r) != nil,
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, http.StatusOK, "login", page{
		Title:        "Login",
		Path:         "/login",
		ErrorMessage: popFlash(w, r),
		LoggedIn:     currentUser(r) != nil,
		Form:         map[string]string{},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	validateLogin(f)
	if !f.valid() {
		s.renderer.render(w, http.StatusUnprocessableEntity, "login", page{
			Title:        "Login",
			Path:         "/login",
			ErrorMessage: f.firstError(),
			Form:         f.echo(),
		})
		return
	}

	_, token, err := s.auth.Login(r.Context(),
		f.get("email"), f.get("password"), r.UserAgent(), r.RemoteAddr)
	if err != nil {
		if errorCode(err) == "AUTH_INVALID_CREDENTIALS" {
			if s.metrics != nil {
				s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
			}
			s.renderer.render(w, http.StatusUnprocessableEntity, "login", page{
				Title:        "Login",
				Path:         "/login",
				ErrorMessage: "Invalid email or password",
				Form:         f.echo(),
			})
			return
		}
		s.serverError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
		s.metrics.ActiveSessionsGauge.Inc()
	}
	s.setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, http.StatusOK, "signup", page{
		Title:        "Signup",
		Path:         "/signup",
		ErrorMessage: popFlash(w, r),
		LoggedIn:     currentUser(r) != nil,
		Form:         map[string]string{},
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	validateSignup(f)
	if !f.valid() {
		s.renderer.render(w, http.StatusUnprocessableEntity, "signup", page{
			Title:        "Signup",
			Path:         "/signup",
			ErrorMessage: f.firstError(),
			Form:         f.echo(),
		})
		return
	}

	user, err := s.auth.Signup(r.Context(), f.get("email"), f.get("password"))
	if err != nil {
		if errorCode(err) == "AUTH_EMAIL_TAKEN" {
			s.renderer.render(w, http.StatusUnprocessableEntity, "signup", page{
				Title:        "Signup",
				Path:         "/signup",
				ErrorMessage: "E-Mail exists already, please pick a different one.",
				Form:         f.echo(),
			})
			return
		}
		s.serverError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.SignupsTotal.Inc()
	}

	// The redirect is written before the confirmation mail is enqueued so
	// delivery problems never block signup.
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	s.mailer.Enqueue(mail.SignupConfirmation(s.opts.MailFrom, user.Email))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := currentSession(r); session != nil {
		if err := s.auth.Logout(r.Context(), session.ID); err != nil {
			errutil.LogError(s.logger, "session teardown failed", err)
		} else if s.metrics != nil {
			s.metrics.ActiveSessionsGauge.Dec()
		}
	}

	// Teardown failures are logged only; the user always lands back home.
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, http.StatusOK, "reset", page{
		Title:        "Reset Password",
		Path:         "/reset",
		ErrorMessage: popFlash(w, r),
		LoggedIn:     currentUser(r) != nil,
		Form:         map[string]string{},
	})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	email := f.get("email")

	user, token, err := s.resets.RequestReset(r.Context(), email)
	if err != nil {
		switch errorCode(err) {
		case "RESET_TOKEN_GENERATE_FAILED":
			http.Redirect(w, r, "/reset", http.StatusSeeOther)
		case "RESET_NO_ACCOUNT":
			// Unlike login, this flow deliberately reveals whether the
			// account exists.
			if s.metrics != nil {
				s.metrics.ResetRequestsTotal.WithLabelValues("unknown_email").Inc()
			}
			setFlash(w, "No account with the email found")
			http.Redirect(w, r, "/reset", http.StatusSeeOther)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.ResetRequestsTotal.WithLabelValues("success").Inc()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
	// Address the mail to the stored email, not the raw submission.
	s.mailer.Enqueue(mail.PasswordReset(s.opts.MailFrom, user.Email, s.opts.BaseURL, token))
}

func (s *Server) handleNewPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	user, err := s.resets.UserForToken(r.Context(), token)
	if err != nil {
		if errorCode(err) == "RESET_TOKEN_INVALID" {
			s.renderTokenInvalid(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.renderer.render(w, http.StatusOK, "new_password", page{
		Title:        "New Password",
		Path:         "/new-password",
		ErrorMessage: popFlash(w, r),
		UserID:       user.ID.String(),
		ResetToken:   token,
	})
}

func (s *Server) handleNewPassword(w http.ResponseWriter, r *http.Request) {
	f, err := parseForm(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	token := f.get("passwordToken")

	validateNewPassword(f)
	if !f.valid() {
		userID, ok := s.lookupResetUser(w, r, token)
		if !ok {
			return
		}
		s.renderer.render(w, http.StatusUnprocessableEntity, "new_password", page{
			Title:        "New Password",
			Path:         "/new-password",
			ErrorMessage: f.firstError(),
			UserID:       userID,
			ResetToken:   token,
		})
		return
	}

	userID, err := ulid.Parse(f.get("userId"))
	if err != nil {
		s.renderTokenInvalid(w, r)
		return
	}

	// The (token, id, expiry) triple is re-verified server-side; the hidden
	// fields are never trusted on their own.
	if err := s.resets.ResetPassword(r.Context(), token, userID, f.get("password")); err != nil {
		switch errorCode(err) {
		case "RESET_TOKEN_INVALID", "RESET_PASSWORD_EMPTY":
			s.renderTokenInvalid(w, r)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	// The old password may have leaked; revoke every existing session for the
	// account. Failure here is logged but does not block the reset.
	if err := s.auth.LogoutAll(r.Context(), userID); err != nil {
		errutil.LogError(s.logger, "session revocation after password reset failed", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// lookupResetUser re-resolves the token for a 422 re-render of the
// new-password form. Reports false after writing the response when the token
// no longer matches.
func (s *Server) lookupResetUser(w http.ResponseWriter, r *http.Request, token string) (string, bool) {
	user, err := s.resets.UserForToken(r.Context(), token)
	if err != nil {
		if errorCode(err) == "RESET_TOKEN_INVALID" {
			s.renderTokenInvalid(w, r)
		} else {
			s.serverError(w, r, err)
		}
		return "", false
	}
	return user.ID.String(), true
}

// renderTokenInvalid is the user-facing failure for expired, absent, or
// mismatched reset tokens.
func (s *Server) renderTokenInvalid(w http.ResponseWriter, r *http.Request) {
	s.renderer.render(w, http.StatusUnprocessableEntity, "error", page{
		Title:        "Invalid Reset Link",
		Path:         r.URL.Path,
		ErrorMessage: "This password reset link is invalid or has expired. Please request a new one.",
		LoggedIn:     currentUser(r) != nil,
	})
}
