package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"optionpricer/internal/config"
	"optionpricer/internal/database"
	"optionpricer/internal/display"
	"optionpricer/internal/form"
	"optionpricer/internal/model"
	"optionpricer/internal/pricing"
)

const (
	defaultQuoteLimit = 20
	maxQuoteLimit     = 500
	shutdownTimeout   = 5 * time.Second

	// maxMessageSize bounds a single websocket form message.
	maxMessageSize = 4096
)

// Pricer is the calculation service behind the HTTP handlers.
type Pricer interface {
	Calculate(ctx context.Context, f form.Form) (model.Quote, error)
	Recent(ctx context.Context, limit int) ([]model.Quote, error)
	Defaults() form.Form
	Bounds() form.Bounds
}

// Server exposes the pricer over HTTP and websocket.
type Server struct {
	logger   *slog.Logger
	pricer   Pricer
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
}

// NewServer creates a new Server.
func NewServer(logger *slog.Logger, pricer Pricer, cfg config.ServerConfig) *Server {
	return &Server{
		logger: logger,
		pricer: pricer,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/price", s.handlePrice).Methods(http.MethodPost)
	api.HandleFunc("/quotes", s.handleQuotes).Methods(http.MethodGet)
	api.HandleFunc("/defaults", s.handleDefaults).Methods(http.MethodGet)
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type defaultsResponse struct {
	Defaults form.Form   `json:"defaults"`
	Bounds   form.Bounds `json:"bounds"`
	Note     string      `json:"note"`
}

type wsResponse struct {
	Quote *model.Quote   `json:"quote,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

// userError maps a calculation error to a message fit for the end user.
// ok is false for errors that are not caused by the submitted values.
func userError(err error) (resp errorResponse, ok bool) {
	switch {
	case errors.Is(err, pricing.ErrInvalidDomain):
		return errorResponse{Error: display.DomainMessage(err), Detail: err.Error()}, true
	case errors.Is(err, form.ErrOutOfRange):
		return errorResponse{Error: err.Error()}, true
	default:
		return errorResponse{Error: "internal error"}, false
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var f form.Form
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body", Detail: err.Error()})
		return
	}

	quote, err := s.pricer.Calculate(r.Context(), f)
	if err != nil {
		resp, ok := userError(err)
		if !ok {
			s.logger.Error("Failed to price option", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	limit := defaultQuoteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQuoteLimit {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and " + strconv.Itoa(maxQuoteLimit)})
			return
		}
		limit = n
	}

	quotes, err := s.pricer.Recent(r.Context(), limit)
	if errors.Is(err, database.ErrDisabled) {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("Failed to load quotes", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if quotes == nil {
		quotes = []model.Quote{}
	}
	s.writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, defaultsResponse{
		Defaults: s.pricer.Defaults(),
		Bounds:   s.pricer.Bounds(),
		Note:     display.EuropeanNote,
	})
}

// handleWebsocket prices every form received on the connection and replies
// with either a quote or an error, one message per form.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer c.Close()
	c.SetReadLimit(maxMessageSize)

	ctx := r.Context()
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Websocket read failed", "error", err)
			}
			return
		}

		var resp wsResponse
		var f form.Form
		if err := json.Unmarshal(message, &f); err != nil {
			resp.Error = &errorResponse{Error: "malformed message", Detail: err.Error()}
		} else if quote, err := s.pricer.Calculate(ctx, f); err != nil {
			e, ok := userError(err)
			if !ok {
				s.logger.Error("Failed to price option", "error", err)
			}
			resp.Error = &e
		} else {
			resp.Quote = &quote
		}

		if err := c.WriteJSON(resp); err != nil {
			s.logger.Warn("Websocket write failed", "error", err)
			return
		}
	}
}
