// Package attribution extracts ambient click attribution signals from a request.
package attribution

import "net/http"

// Cookie names set by the platform's pixel script on the storefront domain.
const (
	cookieFBP = "_fbp" // browser id
	cookieFBC = "_fbc" // click-through id, present after an ad click
)

// Cookies holds the ambient attribution cookies. Absent cookies are empty strings.
type Cookies struct {
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`
}

// ReadCookies returns the attribution cookies present on the request.
// A nil request or a request without a cookie store yields the zero value;
// this never fails and never mutates cookie state.
func ReadCookies(r *http.Request) Cookies {
	if r == nil {
		return Cookies{}
	}

	var c Cookies
	if cookie, err := r.Cookie(cookieFBP); err == nil {
		c.FBP = cookie.Value
	}
	if cookie, err := r.Cookie(cookieFBC); err == nil {
		c.FBC = cookie.Value
	}
	return c
}
