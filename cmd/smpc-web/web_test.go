package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuukJonker/smpc/api/runner"
)

func do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newServer(runner.Options{}).ServeHTTP(rec, req)
	return rec
}

func TestListProtocols(t *testing.T) {
	rec := do(t, http.MethodGet, "/api/protocols", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 4)
	assert.Equal(t, "ECDH", list[0].Name)
	assert.Equal(t, []string{"Alice", "Bob"}, list[0].Roles)
}

func TestRunSum(t *testing.T) {
	body := `{"parameters": {"n": 3}, "inputs": {
		"party_0": {"value": 1},
		"party_1": {"value": 123456789012345678901234567890},
		"party_2": {"value": -4}}}`
	rec := do(t, http.MethodPost, "/api/run/sum", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Output map[string]map[string]json.Number `json:"output"`
		Events []map[string]any                  `json:"events"`
		Trace  string                            `json:"trace"`
	}
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "123456789012345678901234567887", resp.Output["party_0"]["sum"].String())
	assert.NotEmpty(t, resp.Events)
	assert.Contains(t, resp.Trace, "Add values")
}

func TestRunErrors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodPost, "/api/run/nope", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, "/api/run/sum", `{`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, http.MethodPost, "/api/run/sum", `{"parameters": {"n": 2}, "inputs": {"party_0": {"x": 1}}}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, http.MethodPost, "/api/run/sum", `{"parameters": {"n": 1}}`).Code)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, int64(3), normalize(json.Number("3")))
	assert.Equal(t, 1.5, normalize(json.Number("1.5")))
	assert.Equal(t, []any{int64(1), "x"}, normalize([]any{json.Number("1"), "x"}))
}

func TestRunSumDistributed(t *testing.T) {
	body := `{"distributed": true, "parameters": {"n": 3}, "inputs": {
		"party_0": {"value": 1},
		"party_1": {"value": 2},
		"party_2": {"value": 3}}}`
	rec := do(t, http.MethodPost, "/api/run/Sum", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Output     map[string]map[string]json.Number `json:"output"`
		Events     []map[string]any                  `json:"events"`
		RoleEvents map[string][]map[string]any       `json:"role_events"`
	}
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "6", resp.Output["party_0"]["sum"].String())
	assert.Empty(t, resp.Events)
	require.Len(t, resp.RoleEvents, 3)
	for role, events := range resp.RoleEvents {
		require.NotEmpty(t, events, role)
		assert.Equal(t, "protocol_end", events[len(events)-1]["kind"], role)
	}
}
