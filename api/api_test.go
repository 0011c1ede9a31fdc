package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fash-ns/arandao-go/api"
	"github.com/fash-ns/arandao-go/bonus"
	"github.com/fash-ns/arandao-go/core"
	"github.com/fash-ns/arandao-go/engine"
	"github.com/fash-ns/arandao-go/ledger"
)

var testStart = int64(20_000) * engine.DaySeconds

type testEnv struct {
	router *mux.Router
	now    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: testStart}
	c, err := core.New(core.Deps{
		Value:   core.NewMemoryValueTransfer(),
		Token:   core.NewMemoryTokenBackend(0),
		Price:   core.StaticPrice(0),
		Access:  core.StaticAccess{"alice": {core.RoleAdmin}},
		Bonus:   bonus.NewMemoryPool(1_000 * ledger.ValueScale),
		Clock:   func() time.Time { return time.Unix(env.now, 0) },
		Genesis: testStart,
	})
	require.NoError(t, err)

	env.router = mux.NewRouter()
	api.RegisterRoutes(env.router, api.NewHandler(c, zap.NewNop()))
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func orderBody(buyer, parent string, pos uint8, bv uint64) map[string]interface{} {
	return map[string]interface{}{
		"buyer_address":  buyer,
		"parent_address": parent,
		"position":       pos,
		"lines": []map[string]interface{}{
			{"seller_address": "shop", "sale_value": bv, "business_value": bv},
		},
		"total_value": bv,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", orderBody("a", "", 0, 100*ledger.ValueScale))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderIDs []uint64 `json:"order_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{1}, resp.OrderIDs)

	rec = env.do(t, http.MethodGet, "/nodes/address/a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var node ledger.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, uint64(1), node.ID)
	assert.Equal(t, 100*uint64(ledger.ValueScale), node.BV)
}

func TestCreateOrder_RejectedBelowMinimum(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/orders", orderBody("a", "", 0, 10*ledger.ValueScale))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/nodes/address/a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder_InvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettle_AndReplayConflict(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("a", "", 0, 100*ledger.ValueScale)).Code)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("b", "a", 0, 100*ledger.ValueScale)).Code)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("c", "a", 3, 100*ledger.ValueScale)).Code)

	env.now += engine.DaySeconds

	body := map[string]interface{}{"order_ids": []uint64{1, 2, 3}}
	rec := env.do(t, http.MethodPost, "/nodes/1/settle", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var node ledger.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, uint64(2), node.TotalSteps)

	rec = env.do(t, http.MethodPost, "/nodes/1/settle", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetNode_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/nodes/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNodePath(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("a", "", 0, 100*ledger.ValueScale)).Code)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("b", "a", 3, 100*ledger.ValueScale)).Code)

	rec := env.do(t, http.MethodGet, "/nodes/2/path", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Path []uint8 `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []uint8{3}, resp.Path)
}

func TestParams_GetAndForbiddenPut(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/params", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var params engine.Params
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &params))
	assert.Equal(t, engine.DefaultParams(), params)

	body := map[string]interface{}{"caller": "mallory", "params": engine.DefaultParams()}
	rec = env.do(t, http.MethodPut, "/params", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClaims_WeekNotMinted(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", orderBody("a", "", 0, 100*ledger.ValueScale)).Code)

	body := map[string]interface{}{"address": "a", "week": engine.WeekOf(testStart)}
	rec := env.do(t, http.MethodPost, "/claims/buyer", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmission_RunOnOpenWeek(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{"week": engine.WeekOf(testStart)}
	rec := env.do(t, http.MethodPost, "/emission/run", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMigration_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	records := []core.MigrationRecord{{Addr: "m1", Position: 0, BV: 100, CreatedAt: testStart - 10}}
	body := map[string]interface{}{
		"caller": "mallory",
		"batch":  core.MigrationBatch{Records: records, Checksum: core.BatchChecksum(records)},
	}
	rec := env.do(t, http.MethodPost, "/migration", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
