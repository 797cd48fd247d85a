package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hue-bridge-client/internal/domain/model"
	"hue-bridge-client/internal/domain/translator"
	"hue-bridge-client/internal/ports"
)

// Server exposes the synchronized resource graph over local HTTP.
type Server struct {
	controller ports.ControllerPort
	lights     *translator.LightStrategy
	logger     zerolog.Logger
}

func NewServer(controller ports.ControllerPort, logger zerolog.Logger) *Server {
	return &Server{
		controller: controller,
		lights:     &translator.LightStrategy{},
		logger:     logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /resources", s.handleKinds)
	mux.HandleFunc("GET /resources/{kind}", s.handleList)
	mux.HandleFunc("GET /resources/{kind}/{id}", s.handleGet)
	mux.HandleFunc("PUT /resources/{kind}/{id}", s.handleUpdate)
	mux.HandleFunc("GET /lights/{id}", s.handleGetLight)
	mux.HandleFunc("PUT /lights/{id}/state", s.handleSetLightState)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusResponse struct {
	BridgeID   string `json:"bridge_id"`
	Connection string `json:"connection"`
	Attempt    int    `json:"attempt"`
	Resources  int    `json:"resources"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.controller.ConnectionState()
	total := 0
	for _, kind := range s.controller.Kinds() {
		total += len(s.controller.ListResources(kind))
	}
	writeJSON(w, http.StatusOK, statusResponse{
		BridgeID:   s.controller.BridgeID(),
		Connection: state.String(),
		Attempt:    state.Attempt,
		Resources:  total,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.LastEvents())
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	counts := make(map[model.ResourceKind]int)
	for _, kind := range s.controller.Kinds() {
		counts[kind] = len(s.controller.ListResources(kind))
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records := s.controller.ListResources(model.ResourceKind(r.PathValue("kind")))
	out := make([]model.Attributes, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Attributes)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.controller.GetResource(model.ResourceKind(r.PathValue("kind")), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Attributes)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.Attributes
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := model.ResourceIdentity{Kind: model.ResourceKind(r.PathValue("kind")), ID: r.PathValue("id")}
	if err := s.controller.UpdateResource(r.Context(), id, patch); err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]map[string]any, 0, patch.Len())
	for _, k := range patch.Keys() {
		v, _ := patch.Get(k)
		resp = append(resp, map[string]any{
			"success": map[string]any{fmt.Sprintf("/%s/%s/%s", id.Kind, id.ID, k): v},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	rec, err := s.controller.GetResource(model.KindLight, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	light, err := s.lights.ToLight(rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, light)
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	var cmd model.LightCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if err := s.controller.SetLightState(r.Context(), id, cmd); err != nil {
		s.writeError(w, err)
		return
	}

	patch := s.lights.ToPatch(cmd)
	resp := make([]map[string]any, 0, patch.Len())
	for _, k := range patch.Keys() {
		v, _ := patch.Get(k)
		resp = append(resp, map[string]any{
			"success": map[string]any{fmt.Sprintf("/lights/%s/state/%s", id, k): v},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var apiErr *model.APIError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidAttributes):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrUnauthorized), errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Warn().Err(err).Int("status", status).Msg("request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
