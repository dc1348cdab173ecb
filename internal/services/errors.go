// Package services implements the application-facing controllers of the
// storefront client: authentication, cart, orders, product listings and the
// assistant chat session. Each service owns a small piece of observable state,
// talks to the backend through a narrow interface and publishes analytics
// through the event dispatcher. Services never share mutable state directly;
// they depend on each other through read-only accessors.
package services

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that require a signed-in
	// user when no credential is present.
	ErrNotAuthenticated = errors.New("services: not authenticated")

	// ErrLineNotFound is returned when a cart mutation references a line item
	// that is not part of the current cart snapshot.
	ErrLineNotFound = errors.New("services: cart line not found")
)
