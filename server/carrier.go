package server

import (
	"net/http"

	"github.com/nanoauth/nanoauth/auth"
)

// httpCarrier implements auth.Carrier on top of one request/response pair.
// Values written during the request shadow the incoming cookies so a flow
// that sets then reads a value within a single request sees its own write.
type httpCarrier struct {
	w       http.ResponseWriter
	r       *http.Request
	written map[string]string
	deleted map[string]bool
}

func newHTTPCarrier(w http.ResponseWriter, r *http.Request) *httpCarrier {
	return &httpCarrier{
		w:       w,
		r:       r,
		written: make(map[string]string),
		deleted: make(map[string]bool),
	}
}

func (c *httpCarrier) Get(name string) (string, bool) {
	if c.deleted[name] {
		return "", false
	}
	if v, ok := c.written[name]; ok {
		return v, true
	}
	cookie, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (c *httpCarrier) Set(name, value string, opts auth.CookieOptions) {
	c.written[name] = value
	delete(c.deleted, name)
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *httpCarrier) Delete(name string) {
	delete(c.written, name)
	c.deleted[name] = true
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
