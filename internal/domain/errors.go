// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a malformed request (client error, never a
// payment-related one).
var ErrValidation = errors.New("validation failed")

// ErrPaymentRequired indicates a tool invocation was attempted without an
// acceptable payment proof.
var ErrPaymentRequired = errors.New("payment required")

// ErrSettlement indicates both the primary and fallback payment paths
// failed. It is distinct from a tool-execution failure so the orchestrator
// never spends the composition step on it.
var ErrSettlement = errors.New("settlement failed")

// ErrNotInitialized indicates the settlement signer was never configured.
// Callers must fail fast instead of attempting a fallback path, since the
// fallback needs the same signer.
var ErrNotInitialized = errors.New("settlement signer not initialized")

// ErrDiscovery indicates the tool catalog could not be fetched. A session
// must refuse to proceed without a fresh catalog.
var ErrDiscovery = errors.New("tool discovery unavailable")
