package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves read-only catalog data.
type CatalogHandler struct {
	deps Dependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps Dependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleListPlayers handles GET /api/v1/players[?group=].
func (h *CatalogHandler) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.Players(r.Context(), r.URL.Query().Get("group"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleGetPlayer handles GET /api/v1/players/{id}.
func (h *CatalogHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Player(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleListSessions handles GET /api/v1/players/{id}/sessions.
func (h *CatalogHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.deps.Sessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleListGroups handles GET /api/v1/groups.
func (h *CatalogHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.deps.Groups(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleGetGroup handles GET /api/v1/groups/{id}.
func (h *CatalogHandler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Group(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleListListings handles GET /api/v1/listings[?category=].
func (h *CatalogHandler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.deps.Listings(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}
