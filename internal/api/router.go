// Package api exposes the admin console over HTTP: login, the live
// dashboard state, and the moderation actions. Rendering stays client-side;
// this surface only serves the session-visible state and accepts commands.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/dipawards/console/internal/middleware"
	"github.com/dipawards/console/internal/services"
	"github.com/dipawards/console/internal/store"
)

type Router struct {
	store   store.Store
	auth    *services.AuthService
	mod     *services.ModerationService
	matcher services.ActivityMatcher

	// One shared attempt counter: the console fronts a single admin
	// credential, so pre-auth attempts all count against the same state.
	mu       sync.Mutex
	attempts services.AttemptState
	sessions map[string]*services.Session
}

func NewRouter(st store.Store) *Router {
	return &Router{
		store:    st,
		auth:     services.NewAuthService(st, middleware.SignToken),
		mod:      services.NewModerationService(st, services.Categories),
		matcher:  services.NewActivityMatcher(),
		sessions: map[string]*services.Session{},
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", rt.handleLogin) // POST

	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	mux.Handle("/api/logout", authed(rt.handleLogout))           // POST
	mux.Handle("/api/dashboard", authed(rt.handleDashboard))     // GET
	mux.Handle("/api/voting/toggle", authed(rt.handleToggle))    // POST
	mux.Handle("/api/votes/reset", authed(rt.handleReset))       // POST
	mux.Handle("/api/students", authed(rt.handleAddStudent))     // POST
	mux.Handle("/api/students/", authed(rt.handleDeleteStudent)) // DELETE /api/students/{id}
	mux.Handle("/api/password", authed(rt.handlePassword))       // POST
	mux.Handle("/api/export", authed(rt.handleExport))           // GET
}

// POST /api/login {"password": "..."}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rt.mu.Lock()
	res, st, err := rt.auth.AttemptLogin(req.Password, rt.attempts)
	rt.attempts = st
	if err != nil {
		rt.mu.Unlock()
		writeError(w, err)
		return
	}
	sess := services.NewSession(rt.store, rt.matcher)
	sess.Start()
	rt.sessions[res.SessionID] = sess
	rt.mu.Unlock()

	writeJSON(w, map[string]any{"token": res.Token})
}

// POST /api/logout
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sid, _ := middleware.SessionIDFromContext(r.Context())

	rt.mu.Lock()
	sess := rt.sessions[sid]
	delete(rt.sessions, sid)
	rt.mu.Unlock()

	if sess != nil {
		sess.Stop()
	}
	writeJSON(w, map[string]any{"ok": true})
}

// GET /api/dashboard
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := rt.session(r)
	if sess == nil {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}
	writeJSON(w, sess.State())
}

// POST /api/voting/toggle
func (rt *Router) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	locked, err := rt.mod.ToggleVotingLock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"votingLocked": locked})
}

// POST /api/votes/reset {"confirm": true}
func (rt *Router) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Confirm {
		writeError(w, services.NewInvalidError("reset is irreversible and requires confirmation"))
		return
	}
	if err := rt.mod.ResetAllVotes(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// POST /api/students {"name": "...", "email": "..."}
func (rt *Router) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := rt.mod.AddStudent(req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": id})
}

// DELETE /api/students/{id}?confirm=true
func (rt *Router) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/students/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, services.NewInvalidError("deletion is irreversible and requires confirmation"))
		return
	}
	if err := rt.mod.DeleteStudent(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// POST /api/password — always refused; rotation happens out of band.
func (rt *Router) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeError(w, rt.mod.ChangePassword())
}

// GET /api/export
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	csv, err := rt.mod.ExportResults()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="voting_results.csv"`)
	_, _ = w.Write(csv)
}

func (rt *Router) session(r *http.Request) *services.Session {
	sid, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		return nil
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.sessions[sid]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to statuses; anything else (store failures
// included) becomes a generic upstream error with details kept to the log.
func writeError(w http.ResponseWriter, err error) {
	if err == nil {
		writeJSON(w, map[string]any{"ok": true})
		return
	}
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("api: %v", err)
		http.Error(w, "connection error", http.StatusBadGateway)
		return
	}

	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorLocked:
		status = http.StatusTooManyRequests
	case services.ErrorNotConfigured:
		status = http.StatusServiceUnavailable
	case services.ErrorNotFound:
		status = http.StatusNotFound
	}
	body := map[string]any{"error": string(se.Code), "message": se.Message}
	if se.Code == services.ErrorUnauthorized {
		body["attempts_left"] = se.RemainingAttempts
	}
	if se.RetryAfter > 0 {
		body["retry_after_ms"] = se.RetryAfter.Milliseconds()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
