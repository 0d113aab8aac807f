// Package testutil contains helper builders and recorders used across tests
// to reduce boilerplate when constructing wire envelopes and observing what
// the engine delivers to its collaborators. They are not intended for
// production usage.
package testutil
