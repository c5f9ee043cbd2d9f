package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/handler"
)

func (s *Server) routes() {
	s.Router.HandleFunc("GET /healthz", s.healthz)
	s.Router.HandleFunc("POST /invoke", s.invoke)
	s.Router.HandleFunc("GET /api/v1/projects/{project}/secrets", s.listSecrets)
	s.Router.HandleFunc("PUT /api/v1/projects/{project}/secrets/{key}", s.keyAction(handler.ActionWrite))
	s.Router.HandleFunc("PATCH /api/v1/projects/{project}/secrets/{key}", s.keyAction(handler.ActionUpdate))
	s.Router.HandleFunc("DELETE /api/v1/projects/{project}/secrets/{key}", s.keyAction(handler.ActionDelete))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// invoke handles POST /invoke with a handler.Request body
func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("%s: failed to read body: %s", vaultenv.ErrValidation, err))
		return
	}
	writeResponse(w, s.handler.HandleJSON(r.Context(), body))
}

// listSecrets handles GET /api/v1/projects/{project}/secrets
func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, s.handler.Handle(r.Context(), handler.Request{
		Action:    handler.ActionRead,
		ProjectID: r.PathValue("project"),
	}))
}

type valueBody struct {
	Value *string `json:"value"`
}

// keyAction handles PUT, PATCH and DELETE on /api/v1/projects/{project}/secrets/{key}
func (s *Server) keyAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := handler.Request{
			Action:    action,
			ProjectID: r.PathValue("project"),
			Key:       r.PathValue("key"),
		}
		if action != handler.ActionDelete {
			var body valueBody
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil && err != io.EOF {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("%s: invalid JSON: %s", vaultenv.ErrValidation, err))
				return
			}
			req.Value = body.Value
		}
		writeResponse(w, s.handler.Handle(r.Context(), req))
	}
}

func writeResponse(w http.ResponseWriter, resp handler.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
