package server

import (
	"encoding/json"
	"net/http"

	"github.com/nanoauth/nanoauth/auth"
	"github.com/nanoauth/nanoauth/users"
)

// StartHandler kicks off the flow for the provider named in the path.
// Optional query parameters: redirect_to (post-login path) and persist
// ("1" asks for a long-lived session).
func (s *Server) StartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carrier := newHTTPCarrier(w, r)
		opts := auth.StartOptions{
			RedirectTo: r.URL.Query().Get("redirect_to"),
			Persist:    r.URL.Query().Get("persist") == "1",
		}

		target, err := s.auth.StartSignIn(r.Context(), carrier, r.PathValue("provider"), opts)
		if err != nil {
			http.Redirect(w, r, s.auth.FailureRedirect(auth.CodeOf(err)), http.StatusFound)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// CallbackHandler finishes the flow. The redirect target is always usable,
// success or failure, so the handler never writes an error page itself.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carrier := newHTTPCarrier(w, r)
		query := r.URL.Query()

		target, _ := s.auth.CompleteSignIn(r.Context(), carrier, query.Get("code"), query.Get("state"))
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := s.auth.SignOut(newHTTPCarrier(w, r))
		http.Redirect(w, r, target, http.StatusFound)
	}
}

type meResponse struct {
	User             users.User `json:"user"`
	LastUsedProvider string     `json:"last_used_provider,omitempty"`
}

// MeHandler returns the current user. It runs behind
// RequireSessionMiddleware, which already revalidated and rotated the
// credential.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "not signed in",
			})
			return
		}

		resp := meResponse{User: user}
		if hint, err := r.Cookie(auth.LastUsedCookie); err == nil {
			resp.LastUsedProvider = hint.Value
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
