package http

import (
	"net/http"

	"farmstead/internal/core"
	"farmstead/internal/query"
)

func (s *Server) handleListCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := s.store.Crops().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	crops = query.Filter(crops, constraints(r, "farmId", "name", "variety", "growthStage", "status"))
	writeJSON(w, http.StatusOK, crops)
}

func (s *Server) handleGetCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	crop, err := s.store.Crops().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crop)
}

func (s *Server) handleCreateCrop(w http.ResponseWriter, r *http.Request) {
	var crop core.Crop
	if err := decodeJSON(r, &crop); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.Crops().Create(r.Context(), crop)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req cropPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.Crops().Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCrop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Crops().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
