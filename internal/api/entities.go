package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-inventory/internal/entity"
)

// Request parameter names.
const (
	paramName   = "name"
	paramDevice = "device"
)

// warningsHeader carries the list of pre-existing entities on a 202.
const warningsHeader = "Warnings"

// requestParams merges the query string with a form-encoded body.
//
// Unlike r.ParseForm, the body is read for every method, DELETE included.
func requestParams(r *http.Request) (url.Values, error) {
	params := r.URL.Query()

	if r.Body == nil || r.Body == http.NoBody {
		return params, nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return params, nil //nolint:nilerr // Non-form bodies carry no parameters
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form body: %w", err)
	}
	for key, values := range form {
		params[key] = append(params[key], values...)
	}
	return params, nil
}

// pathParam returns the unescaped value of a route parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// handleListEntities returns the references of entities matching the
// request parameters, optionally restricted to one driver.
//
// Every parameter is a filter: name, attr (key or key=value), contains
// and parent. Anything else is rejected with 400.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		writeBadRequest(w, "invalid request parameters")
		return
	}

	entities, err := s.service.List(r.Context(), pathParam(r, "driver"), params)
	if err != nil {
		s.writeEntityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity.References(entities))
}

// handleCreateEntities gets or creates one entity per name parameter.
//
// Responds 201 when every entity is new. When some already existed the
// response is 202 and the Warnings header lists them.
func (s *Server) handleCreateEntities(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		writeBadRequest(w, "invalid request parameters")
		return
	}

	result, err := s.service.Create(r.Context(), pathParam(r, "driver"), params[paramName])
	if err != nil {
		s.writeEntityError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !result.Created() {
		status = http.StatusAccepted
		w.Header().Set(warningsHeader, result.Warning())
	}
	writeJSON(w, status, result.References())
}

// handleDeleteEntities deletes every named entity, or none when any of
// them is missing.
func (s *Server) handleDeleteEntities(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		writeBadRequest(w, "invalid request parameters")
		return
	}

	if err := s.service.Delete(r.Context(), pathParam(r, "driver"), params[paramName]); err != nil {
		s.writeEntityError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleShowEntity describes one entity.
func (s *Server) handleShowEntity(w http.ResponseWriter, r *http.Request) {
	desc, err := s.service.Show(r.Context(), pathParam(r, "driver"), pathParam(r, "name"))
	if err != nil {
		s.writeEntityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// handleInsertEntities inserts every device parameter into the entity and
// returns its description.
func (s *Server) handleInsertEntities(w http.ResponseWriter, r *http.Request) {
	params, err := requestParams(r)
	if err != nil {
		writeBadRequest(w, "invalid request parameters")
		return
	}

	desc, err := s.service.Insert(r.Context(), pathParam(r, "name"), pathParam(r, "driver"), params[paramDevice])
	if err != nil {
		s.writeEntityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}
