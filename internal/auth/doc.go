// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

// Package auth provides authentication primitives for Hearthshop.
//
// # Domain Types
//
// Domain types (User, WebSession) should be created using their
// constructors:
//   - NewUser - creates a User with a normalized email and an empty cart
//   - NewWebSession - creates a WebSession with validated user and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - signup, login, logout, session validation
//   - PasswordResetService - the email-driven password reset flow
//
// Services are created with New*Service constructors that validate
// dependencies.
package auth
