package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxRequestBody = 1 << 20

// Handler returns the service's HTTP surface. All routes require a bearer
// credential resolved through the identity service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/balance", s.withUser(s.handleBalance))
	mux.HandleFunc("GET /api/rooms", s.withUser(s.handleListRooms))
	mux.HandleFunc("POST /api/rooms", s.withUser(s.handleCreateRoom))
	mux.HandleFunc("POST /api/rooms/join", s.withUser(s.handleJoinRoom))
	mux.HandleFunc("GET /api/rooms/{id}", s.withUser(s.handleGetRoom))
	mux.HandleFunc("POST /api/rooms/{id}/ready", s.withUser(s.handleReady))
	mux.HandleFunc("POST /api/rooms/{id}/start", s.withUser(s.handleStart))
	mux.HandleFunc("POST /api/rooms/{id}/act", s.withUser(s.handleAct))
	mux.HandleFunc("POST /api/rooms/{id}/chat", s.withUser(s.handleChat))
	mux.HandleFunc("POST /api/rooms/{id}/leave", s.withUser(s.handleLeave))

	return mux
}

// withUser resolves the request's bearer credential and passes the identity
// through to the handler.
func (s *Server) withUser(next func(http.ResponseWriter, *http.Request, UserInfo)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, ErrUnauthorized)
			return
		}
		user, err := s.identity.Resolve(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, user UserInfo) {
	bal, err := s.GetBalance(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bal)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request, _ UserInfo) {
	rooms, err := s.ListRooms(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []RoomSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request, user UserInfo) {
	var req struct {
		Name       string `json:"name"`
		MaxSeats   int    `json:"max_seats"`
		SmallBlind int64  `json:"small_blind"`
		BigBlind   int64  `json:"big_blind"`
		BuyIn      int64  `json:"buy_in"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	roomID, code, err := s.CreateRoom(r.Context(), user, CreateRoomParams{
		Name:       req.Name,
		MaxSeats:   req.MaxSeats,
		SmallBlind: req.SmallBlind,
		BigBlind:   req.BigBlind,
		BuyIn:      req.BuyIn,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"room_id": roomID, "code": code})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, user UserInfo) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	roomID, err := s.JoinRoom(r.Context(), user, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"room_id": roomID})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, user UserInfo) {
	view, err := s.GetRoom(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, user UserInfo) {
	if err := s.ToggleReady(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, user UserInfo) {
	if err := s.StartGame(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request, user UserInfo) {
	var req struct {
		Action string `json:"action"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.Act(r.Context(), user, r.PathValue("id"), req.Action, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user UserInfo) {
	var req struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.PostChat(r.Context(), user, r.PathValue("id"), req.Body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, user UserInfo) {
	if err := s.Leave(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// decodeJSON reads a bounded JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", ErrValidation)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnf("write response: %v", err)
	}
}

// writeError maps an error to its stable wire code. Unclassified errors are
// logged with a correlation id and reported as INTERNAL without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	type errBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if wire, ok := classify(err); ok {
		s.writeJSON(w, wire.status, map[string]errBody{
			"error": {Code: wire.code, Message: err.Error()},
		})
		return
	}
	id := uuid.NewString()
	s.log.Errorf("internal error %s: %s %s: %v", id, r.Method, r.URL.Path, err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]errBody{
		"error": {Code: "INTERNAL", Message: "internal error (ref " + id + ")"},
	})
}
