package server

import (
	"net/http"

	"resumelens/internal/shell"
)

// uiStateHandler returns the full shell state for the current session
func (s *Server) uiStateHandler(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.Context())

	user, authenticated := s.Sessions.Current(r.Context(), sid)
	state := s.shells.get(sid).Render(user, authenticated)

	writeJSONResponse(w, state, http.StatusOK)
}

// switchTabHandler activates a tab and returns the resulting shell state.
// Unknown tab ids deactivate everything rather than failing; that mirrors
// load-time markup where no tab may be marked active.
func (s *Server) switchTabHandler(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r.Context())
	tabID := r.PathValue("tab")

	sh := s.shells.get(sid)
	sh.SwitchTab(tabID)

	user, authenticated := s.Sessions.Current(r.Context(), sid)
	writeJSONResponse(w, sh.Render(user, authenticated), http.StatusOK)
}

// openModalHandler opens the named modal
func (s *Server) openModalHandler(w http.ResponseWriter, r *http.Request) {
	s.modalHandler(w, r, func(sh *shell.Shell, id string) { sh.OpenModal(id) })
}

// closeModalHandler closes the named modal
func (s *Server) closeModalHandler(w http.ResponseWriter, r *http.Request) {
	s.modalHandler(w, r, func(sh *shell.Shell, id string) { sh.CloseModal(id) })
}

func (s *Server) modalHandler(w http.ResponseWriter, r *http.Request, op func(*shell.Shell, string)) {
	sid := sessionID(r.Context())
	modalID := r.PathValue("modal")

	sh := s.shells.get(sid)
	op(sh, modalID)

	user, authenticated := s.Sessions.Current(r.Context(), sid)
	writeJSONResponse(w, sh.Render(user, authenticated), http.StatusOK)
}
