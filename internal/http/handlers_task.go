package http

import (
	"net/http"

	"farmstead/internal/core"
	"farmstead/internal/query"
)

// handleListTasks returns tasks ordered overdue-first, then by due date.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks = query.Filter(tasks, constraints(r, "farmId", "cropId", "title", "priority", "status"))
	writeJSON(w, http.StatusOK, query.SortTasks(tasks, s.clock()))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.store.Tasks().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task core.Task
	if err := decodeJSON(r, &task); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.store.Tasks().Create(r.Context(), task)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req taskPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.store.Tasks().Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Tasks().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

// handleTaskStats returns aggregate task counts by status plus overdue.
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "task-stats"
	if stats, ok := s.statsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	tasks, err := s.store.Tasks().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats := query.CountTasks(tasks, s.clock())
	s.statsCache.Set(cacheKey, stats)
	writeJSON(w, http.StatusOK, stats)
}

// handleTodaysTasks returns open tasks due on the current day.
func (s *Server) handleTodaysTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, query.TodaysTasks(tasks, s.clock()))
}
