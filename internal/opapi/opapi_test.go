package opapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stev4501/e84ctl/internal/controller"
	"github.com/stev4501/e84ctl/internal/e84"
	"github.com/stev4501/e84ctl/internal/loadport"
	"github.com/stev4501/e84ctl/internal/signal"
	"github.com/stev4501/e84ctl/internal/timer"
)

type fakePort struct{ docked bool }

func (p *fakePort) PrepareForLoad(cb func(loadport.Result))   { cb(loadport.Result{Ready: true}) }
func (p *fakePort) PrepareForUnload(cb func(loadport.Result)) { cb(loadport.Result{Ready: true}) }
func (p *fakePort) Report() loadport.PortReport               { return loadport.PortReport{Docked: p.docked} }
func (p *fakePort) OnChange(cb func(loadport.PortReport))     {}
func (p *fakePort) EmergencySafe()                            {}

func newTestServer(t *testing.T) *Server {
	reg := signal.New(nil, zerolog.Nop())
	handles, err := e84.RegisterSignals(reg)
	require.NoError(t, err)

	port := &fakePort{docked: true}
	facade := controller.New(reg, port, nil, zerolog.Nop())

	timers := timer.New(nil)
	go timers.Run()
	t.Cleanup(timers.Stop)

	machine := e84.New(reg, handles, timers, port, e84.NewOptions().WithObserver(facade), zerolog.Nop())
	facade.Attach(machine)
	return New(facade)
}

func TestSetModeUpdatesFacade(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(struct {
		Mode string `json:"mode"`
	}{Mode: "MANUAL"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/mode", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "MANUAL", resp.Mode)
	require.Equal(t, controller.ModeManual, s.facade.Mode())
}

func TestSetModeRejectsUnknownMode(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(struct {
		Mode string `json:"mode"`
	}{Mode: "BOGUS"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/mode", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 400, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Error)
}

func TestSetModeRejectsGet(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/mode", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 405, rec.Code)
}
