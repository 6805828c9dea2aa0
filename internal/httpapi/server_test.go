// internal/httpapi/server_test.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eg4-bank/internal/bms"
	"github.com/tamzrod/eg4-bank/internal/status"
)

type fakeBank struct {
	pack     bms.PackTelemetry
	hasPack  bool
	units    map[bms.UnitAddress]bms.UnitTelemetry
	presence bms.PresenceSet
	hardware map[bms.UnitAddress]bms.HardwareInfo

	live     map[bms.UnitAddress]bms.UnitTelemetry
	config   []byte
	liveErr  error
	liveRead []bms.UnitAddress
}

func (f *fakeBank) ID() string                                   { return "session-1" }
func (f *fakeBank) Pack() (bms.PackTelemetry, bool)              { return f.pack, f.hasPack }
func (f *fakeBank) Presence() bms.PresenceSet                    { return f.presence }
func (f *fakeBank) Units() map[bms.UnitAddress]bms.UnitTelemetry { return f.units }
func (f *fakeBank) Hardware(a bms.UnitAddress) (bms.HardwareInfo, bool) {
	hw, ok := f.hardware[a]
	return hw, ok
}

func (f *fakeBank) UnitTelemetry(_ context.Context, a bms.UnitAddress) (bms.UnitTelemetry, error) {
	f.liveRead = append(f.liveRead, a)
	if f.liveErr != nil {
		return bms.UnitTelemetry{}, f.liveErr
	}
	return f.live[a], nil
}

func (f *fakeBank) ConfigBlock(context.Context) ([]byte, error) {
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.config, nil
}

func populated() *fakeBank {
	return &fakeBank{
		pack: bms.PackTelemetry{
			Voltage:   53.1,
			SoC:       80,
			Cells:     []float64{3.3, 3.31, 3.32, 3.3},
			Balancing: bms.BalancingActive,
			Warnings:  "No Warnings - 0000",
			Units:     []bms.UnitAddress{16, 1},
			UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		hasPack: true,
		units: map[bms.UnitAddress]bms.UnitTelemetry{
			16: {Address: 16, UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), CellCount: 4, CellMax: 3.32, CellMin: 3.30, StatusCode: 0x01, HeaterCode: 0x80, WarningCode: 0x0002},
			1:  {Address: 1, CellCount: 4},
		},
		presence: bms.PresenceSet{16: true, 1: true},
		hardware: map[bms.UnitAddress]bms.HardwareInfo{
			16: {Address: 16, Make: "EG4-LL400", Version: "V1.02", Serial: "2301_16"},
		},
	}
}

func get(t *testing.T, bank Bank, health HealthFunc, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	Router(bank, health, nil, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rr.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestPack(t *testing.T) {
	rr, body := get(t, populated(), nil, "/api/v1/pack")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 53.1, body["voltage"])
	assert.Equal(t, "Balancing", body["balancing"])
	assert.Equal(t, []any{16.0, 1.0}, body["units"])
}

func TestPack_NotYetPublished(t *testing.T) {
	rr, _ := get(t, &fakeBank{}, nil, "/api/v1/pack")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr, _ = get(t, &fakeBank{}, nil, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestUnits_SortedByAddress(t *testing.T) {
	rr, body := get(t, populated(), nil, "/api/v1/units")
	require.Equal(t, http.StatusOK, rr.Code)

	units := body["units"].([]any)
	require.Len(t, units, 2)
	assert.Equal(t, 1.0, units[0].(map[string]any)["address"])
	assert.Equal(t, 16.0, units[1].(map[string]any)["address"])
}

func TestUnit(t *testing.T) {
	rr, body := get(t, populated(), nil, "/api/v1/units/16")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Charging", body["status"])
	assert.Equal(t, "On", body["heater"])
	assert.Equal(t, "Warning: 0002 - Cell Over Voltage", body["warning"])
	assert.InDelta(t, 0.02, body["cell_delta"].(float64), 1e-9)
	assert.Equal(t, "2024-01-02T03:04:05Z", body["updated_at"])

	hw := body["hardware"].(map[string]any)
	assert.Equal(t, "EG4-LL400", hw["make"])
}

func TestUnit_Errors(t *testing.T) {
	rr, _ := get(t, populated(), nil, "/api/v1/units/17")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = get(t, populated(), nil, "/api/v1/units/abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = get(t, populated(), nil, "/api/v1/units/5")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPresence(t *testing.T) {
	rr, body := get(t, populated(), nil, "/api/v1/presence")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{16.0, 1.0}, body["present"])
}

func TestHealth(t *testing.T) {
	health := func() status.Snapshot {
		return status.Snapshot{Health: status.HealthError, LastErrorCode: bms.CodeAggregation, SecondsInError: 4}
	}
	rr, body := get(t, populated(), health, "/api/v1/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "session-1", body["session"])
	assert.Equal(t, "error", body["health"])
	assert.Equal(t, 5.0, body["last_error_code"])
	assert.Equal(t, 4.0, body["seconds_in_error"])
}

func TestHealthz(t *testing.T) {
	rr, _ := get(t, populated(), nil, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestUnit_LiveRead(t *testing.T) {
	bank := populated()
	bank.live = map[bms.UnitAddress]bms.UnitTelemetry{
		1: {Address: 1, CellCount: 4, SoC: 64, UpdatedAt: time.Date(2024, 1, 2, 3, 5, 0, 0, time.UTC)},
	}

	rr, body := get(t, bank, nil, "/api/v1/units/1?live=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 64.0, body["soc"])
	assert.Equal(t, "2024-01-02T03:05:00Z", body["updated_at"])
	assert.Equal(t, []bms.UnitAddress{1}, bank.liveRead)

	// cached read never touches the bus
	_, _ = get(t, bank, nil, "/api/v1/units/1")
	assert.Len(t, bank.liveRead, 1)
}

func TestUnit_LiveReadFailure(t *testing.T) {
	bank := populated()
	bank.liveErr = &bms.TransportError{Address: 3, Kind: bms.KindCell, Err: errors.New("timeout")}

	rr, body := get(t, bank, nil, "/api/v1/units/3?live=true")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, 1.0, body["code"])
}

func TestConfigBlockRoute(t *testing.T) {
	bank := populated()
	bank.config = []byte{0xAA, 0xBB, 0x01}

	rr, body := get(t, bank, nil, "/api/v1/config")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "aabb01", body["hex"])
	assert.Equal(t, 3.0, body["bytes"])
	assert.Equal(t, 16.0, body["unit"])

	bank.liveErr = &bms.ProtocolError{Err: bms.ErrDeclaredLength}
	rr, body = get(t, bank, nil, "/api/v1/config")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, 2.0, body["code"])
}
