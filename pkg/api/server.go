/*
 * Copyright 2026 PrintForge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/printforge/fleetd/pkg/fleeterr"
	"github.com/printforge/fleetd/pkg/logger"
	"github.com/printforge/fleetd/pkg/models"
)

// Fleet is the slice of the orchestrator the HTTP surface needs.
type Fleet interface {
	AddPrinter(ctx context.Context, rec *models.PrinterRecord) (*models.PrinterRecord, error)
	DeletePrinter(ctx context.Context, printerID string) error
	UpdatePrinterHost(ctx context.Context, printerID, newHost string) error
	DiscoverPrinters(ctx context.Context) ([]*models.Candidate, error)
}

// Catalog is the read-only registry view used for listing.
type Catalog interface {
	Get(printerID string) (*models.PrinterRecord, bool)
	List() []*models.PrinterRecord
}

// Server hosts the local GUI API: printer CRUD, discovery, and the event
// stream. Intended for a loopback listener.
type Server struct {
	fleet   Fleet
	catalog Catalog
	stream  *StreamServer
	logger  logger.Logger

	httpServer *http.Server
}

// NewServer wires the API routes over the given components.
func NewServer(listenAddr string, fleet Fleet, catalog Catalog, stream *StreamServer, log logger.Logger) *Server {
	s := &Server{
		fleet:   fleet,
		catalog: catalog,
		stream:  stream,
		logger:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.stream.HandleEvents)
	mux.HandleFunc("GET /api/printers", s.handleListPrinters)
	mux.HandleFunc("POST /api/printers", s.handleAddPrinter)
	mux.HandleFunc("GET /api/printers/{id}", s.handleGetPrinter)
	mux.HandleFunc("DELETE /api/printers/{id}", s.handleDeletePrinter)
	mux.HandleFunc("PUT /api/printers/{id}/host", s.handleUpdateHost)
	mux.HandleFunc("POST /api/discover", s.handleDiscover)

	s.httpServer = &http.Server{
		Addr:        listenAddr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start implements lifecycle.Service.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("API server listening")

	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Stop implements lifecycle.Service.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleListPrinters(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleGetPrinter(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.catalog.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, fleeterr.New(fleeterr.KindNotFound, "printer not found"))
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAddPrinter(w http.ResponseWriter, r *http.Request) {
	var rec models.PrinterRecord

	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	added, err := s.fleet.AddPrinter(r.Context(), &rec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeletePrinter(w http.ResponseWriter, r *http.Request) {
	if err := s.fleet.DeletePrinter(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateHost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Host string `json:"host"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.fleet.UpdatePrinterHost(r.Context(), r.PathValue("id"), req.Host); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.fleet.DiscoverPrinters(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if candidates == nil {
		candidates = []*models.Candidate{}
	}

	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch fleeterr.KindOf(err) {
	case fleeterr.KindNotFound:
		status = http.StatusNotFound
	case fleeterr.KindAlreadyExists:
		status = http.StatusConflict
	case fleeterr.KindAuthInvalid:
		status = http.StatusUnauthorized
	case fleeterr.KindIdentityMismatch, fleeterr.KindInvalidResponse, fleeterr.KindUnsupportedHostType:
		status = http.StatusBadRequest
	case fleeterr.KindBusy:
		status = http.StatusTooManyRequests
	case fleeterr.KindTimeout, fleeterr.KindNetworkUnavailable:
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
