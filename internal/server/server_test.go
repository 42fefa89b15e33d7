package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"optionpricer/internal/calculator"
	"optionpricer/internal/config"
	"optionpricer/internal/database"
	"optionpricer/internal/display"
	"optionpricer/internal/form"
	"optionpricer/internal/model"
)

type stubRepository struct {
	database.NopRepository
	quotes []model.Quote
	err    error
}

func (s stubRepository) RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.quotes) {
		return s.quotes[:limit], nil
	}
	return s.quotes, nil
}

func newTestServer(repo database.Repository) *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{
		Form: config.FormConfig{
			Defaults: form.DefaultForm(),
			Bounds:   form.DefaultBounds(),
			DayCount: 365,
		},
		Display: config.DisplayConfig{Currency: "€", Decimals: 4},
	}
	calc := calculator.NewCalculator(logger, repo, cfg)
	return NewServer(logger, calc, config.ServerConfig{Addr: "127.0.0.1:0"})
}

func postPrice(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/price", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Price(t *testing.T) {
	s := newTestServer(database.NopRepository{})

	t.Run("valid form", func(t *testing.T) {
		rec := postPrice(t, s, `{"spot":100,"strike":100,"days":90,"rate_percent":5,"volatility_percent":20}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var q model.Quote
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&q))
		assert.InDelta(t, 4.579032, q.CallPrice, 1e-5)
		assert.InDelta(t, 3.353724, q.PutPrice, 1e-5)
		assert.Equal(t, "€ 4.5790", q.CallDisplay)
	})

	t.Run("out of range", func(t *testing.T) {
		rec := postPrice(t, s, `{"spot":100,"strike":100,"days":0,"rate_percent":5,"volatility_percent":20}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error, "days")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postPrice(t, s, `{"spot":"lots"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := postPrice(t, s, `{"spot":100,"dividend":2}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/price", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_DomainErrorMessage(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	bounds := form.DefaultBounds()
	bounds.Days.Min = 0
	cfg := &config.Config{Form: config.FormConfig{Bounds: bounds, DayCount: 365}}
	s := NewServer(logger, calculator.NewCalculator(logger, database.NopRepository{}, cfg), config.ServerConfig{})

	rec := postPrice(t, s, `{"spot":100,"strike":100,"days":0,"rate_percent":5,"volatility_percent":20}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, display.DomainErrorMessage, resp.Error)
	assert.Contains(t, resp.Detail, "time to expiration")
}

func TestServer_Quotes(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		s := newTestServer(database.NopRepository{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("limited", func(t *testing.T) {
		s := newTestServer(stubRepository{quotes: []model.Quote{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes?limit=2", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var quotes []model.Quote
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&quotes))
		require.Len(t, quotes, 2)
		assert.Equal(t, "a", quotes[0].ID)
	})

	t.Run("bad limit", func(t *testing.T) {
		s := newTestServer(stubRepository{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes?limit=0", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		s := newTestServer(stubRepository{err: errors.New("boom")})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestServer_DefaultsAndHealth(t *testing.T) {
	s := newTestServer(database.NopRepository{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/defaults", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp defaultsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, form.DefaultForm(), resp.Defaults)
	assert.Equal(t, form.DefaultBounds(), resp.Bounds)
	assert.Equal(t, display.EuropeanNote, resp.Note)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Websocket(t *testing.T) {
	s := newTestServer(database.NopRepository{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))

	// Each slider move sends a full form and receives a fresh quote.
	for _, vol := range []float64{20, 30} {
		f := form.DefaultForm()
		f.VolatilityPercent = vol
		require.NoError(t, c.WriteJSON(f))

		var resp wsResponse
		require.NoError(t, c.ReadJSON(&resp))
		require.NotNil(t, resp.Quote)
		assert.Nil(t, resp.Error)
		assert.Equal(t, vol, resp.Quote.VolatilityPercent)
	}

	f := form.DefaultForm()
	f.Days = 400
	require.NoError(t, c.WriteJSON(f))
	var resp wsResponse
	require.NoError(t, c.ReadJSON(&resp))
	assert.Nil(t, resp.Quote)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Error, "days")

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	resp = wsResponse{}
	require.NoError(t, c.ReadJSON(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "malformed message", resp.Error.Error)
}

func TestServer_WebsocketRejectsOversizedMessage(t *testing.T) {
	s := newTestServer(database.NopRepository{})
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))

	padding := strings.Repeat(" ", 2*maxMessageSize)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"spot":100`+padding+`}`)))

	_, _, err = c.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected error: %v", err)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := newTestServer(database.NopRepository{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
