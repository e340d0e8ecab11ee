package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"gorevlerim/pkg/apikey"
)

// tokenRequest holds the token parameters. In a JSON body a grant_type
// that is not a string reads as empty and a code that is not a string
// sets badCode.
type tokenRequest struct {
	GrantType string
	Code      string
	badCode   bool
}

func (r *tokenRequest) read(req *http.Request) error {
	if strings.Contains(req.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := req.ParseForm(); err != nil {
			return err
		}
		r.GrantType = req.PostForm.Get("grant_type")
		r.Code = req.PostForm.Get("code")
		return nil
	}

	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	r.GrantType, _ = body["grant_type"].(string)
	if v, ok := body["code"]; ok && v != nil {
		r.Code, ok = v.(string)
		r.badCode = !ok
	}
	return nil
}

// handleToken exchanges an authorization code for an access token. Codes
// are stored API keys and the token handed back is the code itself.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req tokenRequest
	if err := req.read(r); err != nil {
		s.log.Debug("token request unreadable", "error", err)
		s.oauthError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if req.GrantType != "authorization_code" {
		s.writeError(w, http.StatusBadRequest, "unsupported_grant_type")
		return
	}
	if req.badCode {
		s.oauthError(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
		return
	}
	if req.Code == "" {
		s.oauthError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	if _, err := s.keys.Lookup(r.Context(), req.Code); err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			s.oauthError(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
			return
		}
		s.log.Warn("api key lookup failed", "error", err)
		s.oauthError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"access_token": req.Code,
		"token_type":   "bearer",
		"scope":        "tasks",
	})
}

func (s *Server) oauthError(w http.ResponseWriter, status int, code, description string) {
	s.writeJSON(w, status, map[string]string{"error": code, "error_description": description})
}

// handleAuthorize forwards the OAuth parameters to the consent page inside
// the URL fragment. Nothing is validated here.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	base, _, _ := strings.Cut(s.opts.ConsentURL, "#")
	target := base + "#/gpt-connect" +
		"?redirect_uri=" + encodeComponent(q.Get("redirect_uri")) +
		"&state=" + encodeComponent(q.Get("state")) +
		"&client_id=" + encodeComponent(q.Get("client_id"))

	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusFound)
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s the way browsers' encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
