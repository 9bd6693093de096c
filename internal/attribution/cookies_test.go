package attribution

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReadCookies(t *testing.T) {
	t.Run("both cookies present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/track", nil)
		r.AddCookie(&http.Cookie{Name: "_fbp", Value: "fb.1.1700000000.12345"})
		r.AddCookie(&http.Cookie{Name: "_fbc", Value: "fb.1.1700000000.AbCdEf"})

		c := ReadCookies(r)
		if c.FBP != "fb.1.1700000000.12345" {
			t.Errorf("FBP = %q", c.FBP)
		}
		if c.FBC != "fb.1.1700000000.AbCdEf" {
			t.Errorf("FBC = %q", c.FBC)
		}
	})

	t.Run("absent cookies yield empty fields", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/track", nil)
		if c := ReadCookies(r); c != (Cookies{}) {
			t.Errorf("ReadCookies = %+v, want zero value", c)
		}
	})

	t.Run("one cookie present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/track", nil)
		r.AddCookie(&http.Cookie{Name: "_fbp", Value: "fb.1.1700000000.12345"})

		c := ReadCookies(r)
		if c.FBP == "" || c.FBC != "" {
			t.Errorf("ReadCookies = %+v", c)
		}
	})

	t.Run("nil request tolerated", func(t *testing.T) {
		if c := ReadCookies(nil); c != (Cookies{}) {
			t.Errorf("ReadCookies(nil) = %+v, want zero value", c)
		}
	})
}
