// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity already exists or was concurrently modified.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates a request or payload failed validation.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized indicates a missing or invalid credential (e.g. a webhook
// signature that does not match the integration secret).
var ErrUnauthorized = errors.New("unauthorized")
