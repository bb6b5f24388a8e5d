package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napomni/napomni/internal/profile"
	"github.com/napomni/napomni/plugin/nl/segment"
	"github.com/napomni/napomni/plugin/nl/timeparse"
)

func testServer(t *testing.T) *echo.Echo {
	t.Helper()

	loc, err := time.LoadLocation(timeparse.DefaultTimezone)
	require.NoError(t, err)

	svc := NewAPIV1Service(
		&profile.Profile{Version: "0.3.0"},
		timeparse.NewResolver(nil, timeparse.DefaultSettings(), loc),
		segment.NewSegmenter(nil),
	)
	e := echo.New()
	svc.Register(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "0.3.0", body["version"])
}

func TestParse(t *testing.T) {
	e := testServer(t)

	rec := postJSON(e, "/api/v1/parse", `{"text": "21.12.2099 14:48 купить хлеб"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res timeparse.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Err)
	assert.Equal(t, "купить хлеб", res.Task)
	assert.Equal(t, "2099-12-21 14:48:00", res.Datetime)
	assert.Equal(t, "21.12.2099 14:48 купить хлеб", res.Original)
}

func TestParse_TimesOverride(t *testing.T) {
	e := testServer(t)

	// No temporal signal: the reminder lands on the caller-supplied default
	// time instead of the built-in one.
	rec := postJSON(e, "/api/v1/parse", `{"text": "купить цветы", "times": {"default_time": "23:59"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res timeparse.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Err)
	assert.Equal(t, "купить цветы", res.Task)
	assert.True(t, strings.HasSuffix(res.Datetime, "23:59:00"), "datetime %q", res.Datetime)
}

func TestParse_MissingText(t *testing.T) {
	e := testServer(t)

	rec := postJSON(e, "/api/v1/parse", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSegment(t *testing.T) {
	e := testServer(t)

	rec := postJSON(e, "/api/v1/segment", `{"text": "купить хлеб\nпозвонить маме"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res segment.SegmentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Err)
	assert.Equal(t, []string{"купить хлеб", "позвонить маме"}, res.Items)
}

func TestSegment_SmartWithoutModelFallsBackToLocal(t *testing.T) {
	e := testServer(t)

	rec := postJSON(e, "/api/v1/segment", `{"text": "завтра купить хлеб", "smart": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res segment.SegmentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Err)
	assert.Equal(t, []string{"завтра купить хлеб"}, res.Items)
}

func TestSegment_MissingText(t *testing.T) {
	e := testServer(t)

	rec := postJSON(e, "/api/v1/segment", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
