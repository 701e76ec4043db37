package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	data.Levels = levels
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error().Err(err).Str("page", data.Page).Msg("Failed to render page")
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{Page: "list", Employees: s.store.List()})
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageData{Page: "form", Action: "/create"})
}

func (s *Server) handleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	e := formEmployee(r)
	created, err := s.store.Create(e)
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, pageData{Page: "form", Action: "/create", Employee: e, Error: err.Error()})
		return
	}
	s.logger.Info().Int("id", created.ID).Str("name", created.Name).Msg("Employee created")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := s.store.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, pageData{Page: "form", Action: "/edit/" + strconv.Itoa(id), Employee: e})
}

func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e := formEmployee(r)
	e.ID = id
	if _, err := s.store.Update(e); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			http.NotFound(w, r)
			return
		}
		s.render(w, http.StatusUnprocessableEntity, pageData{Page: "form", Action: "/edit/" + strconv.Itoa(id), Employee: e, Error: err.Error()})
		return
	}
	s.logger.Info().Int("id", id).Str("name", e.Name).Msg("Employee updated")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formEmployee(r *http.Request) Employee {
	return Employee{
		Name:     r.FormValue("name"),
		Position: r.FormValue("position"),
		Level:    r.FormValue("level"),
	}
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleAPIGet(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.store.Get(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	var e Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := s.store.Create(e)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var e Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	e.ID = id
	updated, err := s.store.Update(e)
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case err != nil:
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		WriteJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Delete(id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info().Int("id", id).Msg("Employee deleted")
	w.WriteHeader(http.StatusNoContent)
}
