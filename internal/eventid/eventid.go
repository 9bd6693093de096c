// Package eventid mints the correlation token shared by the pixel and server
// tracking channels for one logical business event. The platform deduplicates
// the two channel emissions on this token, so the same token must be attached
// to both and never reused across distinct events.
package eventid

import "github.com/google/uuid"

// Mint returns a new opaque event identity with 128 bits of entropy.
// A random UUID rather than a time-ordered one: the token is a pure
// correlation key and leaks nothing about emission order.
func Mint() string {
	return uuid.NewString()
}
