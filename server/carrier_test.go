package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nanoauth/nanoauth/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarrierReadsRequestCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "a", Value: "1"})

	c := newHTTPCarrier(httptest.NewRecorder(), req)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCarrierWritesShadowRequestCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "a", Value: "old"})

	c := newHTTPCarrier(rec, req)
	c.Set("a", "new", auth.CookieOptions{HTTPOnly: true, Secure: true, MaxAge: 60})

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v, "a write within the request wins over the incoming cookie")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "new", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 60, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestCarrierDelete(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "a", Value: "1"})

	c := newHTTPCarrier(rec, req)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok, "a deleted cookie is gone for the rest of the request")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0, "deletion expires the cookie on the client")

	c.Set("a", "again", auth.CookieOptions{})
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "again", v)
}
