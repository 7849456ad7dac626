package http

import (
	"net/http"

	"daftar/internal/log"
)

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates an account. The response body is the public view
// of the user; digest and tokens never serialize.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleLogin exchanges credentials for a session token. The token rides
// both the x-auth response header and the body, matching what clients of
// the original service expect.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Login succeeded",
		log.FieldUserID, user.ID)

	w.Header().Set(AuthHeader, token)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}

// handleLogout revokes the token the request authenticated with.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	token := currentToken(r.Context())

	if err := s.users.Logout(r.Context(), user.ID, token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, "logout successful")
}
