package http

import (
	"net/http"

	"farmstead/internal/core"
	"farmstead/internal/query"
)

func (s *Server) handleListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := s.store.Farms().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	farms = query.Filter(farms, constraints(r, "name", "location", "areaUnit"))
	writeJSON(w, http.StatusOK, farms)
}

func (s *Server) handleGetFarm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	farm, err := s.store.Farms().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

func (s *Server) handleCreateFarm(w http.ResponseWriter, r *http.Request) {
	var farm core.Farm
	if err := decodeJSON(r, &farm); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.Farms().Create(r.Context(), farm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateFarm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req farmPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.Farms().Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteFarm removes a farm together with its crops.
func (s *Server) handleDeleteFarm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.farms.DeleteWithCrops(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
