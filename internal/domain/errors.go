// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or concurrent-modification conflict
// (duplicate email, duplicate employee number, lost sequence race).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a field-level validation failure. Wrap it with the
// field detail: fmt.Errorf("%w: department is required", domain.ErrValidation).
var ErrValidation = errors.New("validation")

// ErrCrossTenant indicates a reference to an entity owned by another tenant.
// No cross-tenant reference is ever valid.
var ErrCrossTenant = errors.New("cross-tenant reference")

// ErrForbidden indicates the acting user's role is insufficient.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated indicates a missing or invalid credential.
var ErrUnauthenticated = errors.New("unauthenticated")
