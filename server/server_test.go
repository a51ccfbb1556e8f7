package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/agrolens/cache"
	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/internal/config"
)

func testServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	row := func(year int, v float64, country string) engine.Observation {
		return engine.Observation{Year: year, Value: v, Unit: "t", Tags: map[string]string{
			engine.TagDomain:    "Production",
			engine.TagMetric:    "Production",
			engine.TagCommodity: "Wheat",
			engine.TagCountry:   country,
		}}
	}
	data := engine.NewSliceDataset([]engine.Observation{
		row(2018, 100, "India"), row(2019, 110, "India"), row(2020, 121, "India"),
		row(2020, 50, "Kenya"),
		row(2019, 5, "Narnia"), row(2020, 6, "Narnia"),
	})
	cat, err := catalog.Load()
	require.NoError(t, err)

	srv := New(config.ServerConfig{Addr: ":0", MaxComparisons: 3}, data, cat, nil, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestSummaryByCodes(t *testing.T) {
	ts := testServer(t)

	resp, body := postJSON(t, ts.URL+"/v1/summaries", `{"domain":"QCL","commodity":"15","country":"100","narrative":true,"chart":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bundle := body["bundle"].(map[string]any)
	assert.Equal(t, "rising", bundle["trend"])
	assert.Equal(t, "India", bundle["filter"].(map[string]any)["country"])
	assert.Equal(t, false, body["cached"])
	assert.Nil(t, body["warnings"])

	report := body["report"].(map[string]any)
	assert.Equal(t, "rules", report["source"])
	assert.Contains(t, body["chart"].(map[string]any)["title"], "India")
}

func TestSummaryUndefinedIsNull(t *testing.T) {
	ts := testServer(t)
	resp, body := postJSON(t, ts.URL+"/v1/summaries", `{"country":"Kenya"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	features := body["bundle"].(map[string]any)["features"].(map[string]any)
	assert.Contains(t, features, "volatility")
	assert.Nil(t, features["volatility"])
	assert.Equal(t, "insufficient data", body["bundle"].(map[string]any)["trend"])
}

func TestSummaryErrors(t *testing.T) {
	ts := testServer(t)

	resp, body := postJSON(t, ts.URL+"/v1/summaries", `{"country":"France"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "empty_result", body["code"])

	resp, body = postJSON(t, ts.URL+"/v1/summaries", `{"yearStart":2020,"yearEnd":2010}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_filter", body["code"])

	resp, body = postJSON(t, ts.URL+"/v1/summaries", `{"yearStart":2020,"yearEnd":2020}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "duplicate_year", body["code"])

	resp, _ = postJSON(t, ts.URL+"/v1/summaries", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummaryWarnsOnUnknownNames(t *testing.T) {
	ts := testServer(t)
	resp, body := postJSON(t, ts.URL+"/v1/summaries", `{"country":"Narnia"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["warnings"], 1)
	assert.Contains(t, body["warnings"].([]any)[0], "Narnia")
}

func TestSummaryCached(t *testing.T) {
	c, err := cache.New(4)
	require.NoError(t, err)
	ts := testServer(t, WithCache(c))

	_, first := postJSON(t, ts.URL+"/v1/summaries", `{"country":"India"}`)
	_, second := postJSON(t, ts.URL+"/v1/summaries", `{"country":"india"}`)
	assert.Equal(t, false, first["cached"])
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, first["bundle"], second["bundle"])
	assert.Equal(t, 1, c.Len())
}

func TestComparison(t *testing.T) {
	ts := testServer(t)

	resp, body := postJSON(t, ts.URL+"/v1/comparisons", `{"filters":[{"country":"India"},{"country":"Peru"},{"country":"Kenya"}],"chart":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := body["results"].([]any)
	require.Len(t, results, 3)
	assert.Equal(t, "rising", results[0].(map[string]any)["bundle"].(map[string]any)["trend"])
	assert.Nil(t, results[1].(map[string]any)["bundle"])
	assert.NotEmpty(t, results[1].(map[string]any)["error"])
	assert.Len(t, body["chart"].(map[string]any)["series"], 2)

	resp, _ = postJSON(t, ts.URL+"/v1/comparisons", `{"filters":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/v1/comparisons", `{"filters":[{},{},{},{}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogAndHealth(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	var cat catalog.Catalog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Equal(t, "Production", cat.Domains[0].Name)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 6.0, health["observations"])
}

func TestChartPNG(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/v1/charts/trend.png?country=India&from=2018")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))

	bad, err := http.Get(ts.URL + "/v1/charts/trend.png?from=soon")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := testServer(t)
	postJSON(t, ts.URL+"/v1/summaries", `{"country":"India"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, `agrolens_summaries_total{trend="rising"} 1`)
	assert.Contains(t, out, `agrolens_http_requests_total{route="/v1/summaries",status="200"} 1`)
}
