package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wavelan/wifid/internal/hostapd"
	"github.com/wavelan/wifid/internal/server"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/interfaces", func(r chi.Router) {
			r.Delete("/", s.handleTearDownAll)

			r.Route("/station", func(r chi.Router) {
				r.Post("/", s.handleCreateStation)
				r.Get("/", s.handleListStations)
				r.Delete("/", s.handleTearDownStations)
			})

			r.Route("/ap", func(r chi.Router) {
				r.Post("/", s.handleCreateAP)
				r.Get("/", s.handleListAPs)
				r.Delete("/", s.handleTearDownAPs)
				r.Get("/{name}/stations", s.handleAPStations)
			})
		})

		r.Post("/command", s.handleCommand)
		r.Get("/dump", s.handleDump)
		r.Get("/events", s.handleEvents)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// interfaceInfo is the JSON shape of one interface controller.
type interfaceInfo struct {
	Name     string `json:"name"`
	Index    uint32 `json:"index"`
	MAC      string `json:"mac,omitempty"`
	Stations *int   `json:"stations,omitempty"`
}

// createStationRequest is the optional body for station creation.
type createStationRequest struct {
	StartSupplicant bool `json:"start_supplicant"`
}

// handleCreateStation claims an interface in station mode and
// optionally starts the supplicant on it.
func (s *Server) handleCreateStation(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ci, err := s.manager.CreateClientInterface(r.Context())
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	if req.StartSupplicant {
		if err := ci.StartSupplicant(r.Context()); err != nil {
			writeInternalError(w, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusCreated, clientInfo(ci))
}

// handleListStations returns the active station controllers.
func (s *Server) handleListStations(w http.ResponseWriter, _ *http.Request) {
	list := s.manager.ListClientInterfaces()
	out := make([]interfaceInfo, 0, len(list))
	for _, ci := range list {
		out = append(out, clientInfo(ci))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTearDownStations releases all station controllers.
func (s *Server) handleTearDownStations(w http.ResponseWriter, _ *http.Request) {
	s.manager.TearDownClientInterfaces()
	w.WriteHeader(http.StatusNoContent)
}

// createAPRequest is the optional body for AP creation. When SSID is
// set, hostapd configuration is generated and the daemon started.
type createAPRequest struct {
	Name       string `json:"name,omitempty"`
	SSID       string `json:"ssid,omitempty"`
	Hidden     bool   `json:"hidden,omitempty"`
	Channel    int    `json:"channel,omitempty"`
	Encryption string `json:"encryption,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// handleCreateAP claims an interface in AP mode, by name when one is
// given, and optionally brings up a hosted network on it.
func (s *Server) handleCreateAP(w http.ResponseWriter, r *http.Request) {
	var req createAPRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var (
		ap  *server.ApInterface
		err error
	)
	if req.Name != "" {
		ap, err = s.manager.CreateNamedApInterface(r.Context(), req.Name)
	} else {
		ap, err = s.manager.CreateApInterface(r.Context())
	}
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	if req.SSID != "" {
		settings := hostapd.Settings{
			SSID:       []byte(req.SSID),
			Hidden:     req.Hidden,
			Channel:    req.Channel,
			Encryption: parseEncryption(req.Encryption),
			Passphrase: []byte(req.Passphrase),
		}
		if err := ap.WriteConfig(settings); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if err := ap.StartDaemon(r.Context()); err != nil {
			writeInternalError(w, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusCreated, apInfo(ap))
}

// handleListAPs returns the active AP controllers with station counts.
func (s *Server) handleListAPs(w http.ResponseWriter, _ *http.Request) {
	list := s.manager.ListApInterfaces()
	out := make([]interfaceInfo, 0, len(list))
	for _, ap := range list {
		out = append(out, apInfo(ap))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTearDownAPs releases all AP controllers.
func (s *Server) handleTearDownAPs(w http.ResponseWriter, _ *http.Request) {
	s.manager.TearDownApInterfaces()
	w.WriteHeader(http.StatusNoContent)
}

// handleTearDownAll releases every controller of both kinds.
func (s *Server) handleTearDownAll(w http.ResponseWriter, _ *http.Request) {
	s.manager.TearDownAll()
	w.WriteHeader(http.StatusNoContent)
}

// handleAPStations returns the associated-station count of one AP.
func (s *Server) handleAPStations(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, ap := range s.manager.ListApInterfaces() {
		if ap.Name() == name {
			writeJSON(w, http.StatusOK, map[string]any{
				"interface": name,
				"stations":  ap.StationCount(),
			})
			return
		}
	}
	writeNotFound(w, "no AP interface named "+name)
}

// commandResponse reports raw command dispatch success.
type commandResponse struct {
	Success bool `json:"success"`
}

// handleCommand passes the raw request body to the command dispatcher.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading command body: "+err.Error())
		return
	}
	ok := s.dispatcher.Dispatch(r.Context(), raw)
	writeJSON(w, http.StatusOK, commandResponse{Success: ok})
}

// handleDump streams the daemon's interface state as plain text.
func (s *Server) handleDump(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.manager.Dump(&buf); err != nil {
		writeInternalError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // best-effort response write
}

// handleEvents serves the journaled interface events, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeNotFound(w, "event journal not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	var err error
	var records any
	if name := r.URL.Query().Get("interface"); name != "" {
		records, err = s.journal.ByInterface(r.Context(), name, limit)
	} else {
		records, err = s.journal.Recent(r.Context(), limit)
	}
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// writeManagerError maps lifecycle manager errors to HTTP statuses.
func (s *Server) writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, server.ErrConflict):
		writeConflict(w, err.Error())
	case errors.Is(err, server.ErrRadioNotFound),
		errors.Is(err, server.ErrNoUsableInterface):
		writeNotFound(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

// decodeOptionalBody decodes a JSON body into v; an empty body is fine.
func decodeOptionalBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseEncryption maps the wire name onto hostapd encryption types.
// Unknown names fall back to open; config generation rejects
// inconsistent settings.
func parseEncryption(name string) hostapd.EncryptionType {
	switch name {
	case "wpa":
		return hostapd.EncryptionWPA
	case "wpa2":
		return hostapd.EncryptionWPA2
	default:
		return hostapd.EncryptionOpen
	}
}

func clientInfo(ci *server.ClientInterface) interfaceInfo {
	return interfaceInfo{
		Name:  ci.Name(),
		Index: ci.Index(),
		MAC:   ci.Descriptor().MAC.String(),
	}
}

func apInfo(ap *server.ApInterface) interfaceInfo {
	count := ap.StationCount()
	return interfaceInfo{
		Name:     ap.Name(),
		Index:    ap.Index(),
		MAC:      ap.Descriptor().MAC.String(),
		Stations: &count,
	}
}
