package http

import (
	"net/http"

	"farmstead/internal/query"
	"farmstead/internal/store"
)

// handleDashboard returns the aggregate landing-page view. The financial
// summary inside it is best-effort; the rest of the reads must succeed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "dashboard"
	if d, ok := s.dashboardCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, d)
		return
	}

	d, err := s.dash.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.dashboardCache.Set(cacheKey, d)
	writeJSON(w, http.StatusOK, d)
}

// handleActiveCropCount reports how many crops a farm is actively growing.
func (s *Server) handleActiveCropCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.Farms().Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	crops, err := s.store.Crops().ListByFarm(r.Context(), id)
	if err != nil && !store.IsNotFound(err) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"activeCropCount": query.ActiveCropCount(crops, id),
	})
}
