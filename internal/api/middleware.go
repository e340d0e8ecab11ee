package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"gorevlerim/pkg/apikey"
)

type ctxKey int

const userIDKey ctxKey = iota

// cors applies the configured header set to every response and answers
// preflight requests directly.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if v := s.opts.CORS.AllowOrigin; v != "" {
			h.Set("Access-Control-Allow-Origin", v)
		}
		if v := s.opts.CORS.AllowHeaders; v != "" {
			h.Set("Access-Control-Allow-Headers", v)
		}
		if v := s.opts.CORS.AllowMethods; v != "" {
			h.Set("Access-Control-Allow-Methods", v)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAPIKey accepts the static key from the x-api-key header or the
// api_key query parameter. A bearer token issued by the token endpoint is
// accepted too and makes its owner the request's default user.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-api-key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != "" && s.opts.APIKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.opts.APIKey)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		if token, ok := bearerToken(r); ok && s.keys != nil {
			k, err := s.keys.Lookup(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, k.UserID)))
				return
			}
			if !errors.Is(err, apikey.ErrNotFound) {
				s.log.Warn("bearer token lookup failed", "error", err)
			}
		}

		s.writeError(w, http.StatusUnauthorized, "Unauthorized")
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// userID returns the default user of the request.
func (s *Server) userID(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return s.opts.DefaultUserID
}
