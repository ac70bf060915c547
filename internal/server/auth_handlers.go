package server

import (
	"net/http"

	"resumelens/internal/credstore"
	"resumelens/internal/observability"
	"resumelens/internal/shell"

	"go.opentelemetry.io/otel/attribute"
)

// UserView is the account payload returned to clients. Passwords never
// leave the store through this surface.
type UserView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func viewOf(user credstore.User) UserView {
	return UserView{Name: user.Name, Email: user.Email}
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	User       UserView         `json:"user"`
	AuthButton shell.AuthButton `json:"authButton"`
}

// createSignupHandler wraps the signup handler with observability
func (s *Server) createSignupHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.signup")
		defer span.End()

		var req SignupRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		sid := sessionID(ctx)
		metrics := om.GetMetrics()

		user, err := s.Sessions.Signup(ctx, sid, req.Name, req.Email, req.Password)
		if err != nil {
			span.RecordError(err)
			metrics.RecordAccountMetric(ctx, "signup", false, om)
			writeAppError(w, err)
			return
		}

		// A fresh account is signed in immediately, so the auth modal closes.
		s.shells.get(sid).CloseModal(shell.AuthModal)

		metrics.RecordAccountMetric(ctx, "signup", true, om)
		span.SetAttributes(attribute.Bool("success", true))

		writeJSONResponse(w, AuthResponse{
			User:       viewOf(user),
			AuthButton: shell.RenderAuthButton(user, true),
		}, http.StatusCreated)
	}
}

// createLoginHandler wraps the login handler with observability
func (s *Server) createLoginHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.login")
		defer span.End()

		var req LoginRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		sid := sessionID(ctx)
		metrics := om.GetMetrics()

		user, err := s.Sessions.Login(ctx, sid, req.Email, req.Password)
		if err != nil {
			span.RecordError(err)
			metrics.RecordAccountMetric(ctx, "login", false, om)
			writeAppError(w, err)
			return
		}

		s.shells.get(sid).CloseModal(shell.AuthModal)

		metrics.RecordAccountMetric(ctx, "login", true, om)
		span.SetAttributes(attribute.Bool("success", true))

		writeJSONResponse(w, AuthResponse{
			User:       viewOf(user),
			AuthButton: shell.RenderAuthButton(user, true),
		}, http.StatusOK)
	}
}

// createLogoutHandler wraps the logout handler with observability
func (s *Server) createLogoutHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.logout")
		defer span.End()

		sid := sessionID(ctx)
		s.Sessions.Logout(ctx, sid)

		metrics := om.GetMetrics()
		metrics.RecordAccountMetric(ctx, "logout", true, om)
		span.SetAttributes(attribute.Bool("success", true))

		writeJSONResponse(w, map[string]any{
			"authButton": shell.RenderAuthButton(credstore.User{}, false),
		}, http.StatusOK)
	}
}

// currentUserHandler reports the account bound to the current session
func (s *Server) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.Context())

	user, ok := s.Sessions.Current(r.Context(), sid)
	if !ok {
		writeJSONResponse(w, map[string]any{
			"authenticated": false,
			"authButton":    shell.RenderAuthButton(credstore.User{}, false),
		}, http.StatusOK)
		return
	}

	writeJSONResponse(w, map[string]any{
		"authenticated": true,
		"user":          viewOf(user),
		"authButton":    shell.RenderAuthButton(user, true),
	}, http.StatusOK)
}
