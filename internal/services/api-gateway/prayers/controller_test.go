package prayers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/location"
	"github.com/NordCoder/Reminderus/internal/domain/prayerlog"
	"github.com/NordCoder/Reminderus/internal/timings"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (h *harness) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewController(zap.NewNop(), h.uc).Register(r.Group("/api"))
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHTTP_Timings(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)

	w := serve(h.router(), http.MethodGet, "/api/prayers/timings?date=2024-06-05", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data TimingsView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-06-05", body.Data.Date)
	assert.Equal(t, "Asia/Karachi", body.Data.Timezone)
	assert.Equal(t, "05:00", body.Data.Timings["Fajr"])
	assert.Len(t, body.Data.Windows, 5)
}

func TestHTTP_TimingsStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		loc  *location.Location
		path string
		up   error
		code int
		msg  string
	}{
		{"no location", nil, "/api/prayers/timings", nil, http.StatusBadRequest, "Location not configured"},
		{"bad lat", nil, "/api/prayers/timings?lat=north&lng=1", nil, http.StatusBadRequest, "lat must be a number"},
		{"upstream", karachi, "/api/prayers/timings", timings.ErrUpstream, http.StatusBadGateway, "Failed to fetch prayer timings"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(at("2024-06-01T10:00:00Z"), tc.loc, nil)
			h.tim.err = tc.up
			w := serve(h.router(), http.MethodGet, tc.path, "")
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.msg, errorOf(t, w))
		})
	}
}

func TestHTTP_TimingsQueryLocation(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), nil, nil)

	w := serve(h.router(), http.MethodGet, "/api/prayers/timings?lat=21.42&lng=39.82&timezone=Asia/Riyadh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fetchCall{21.42, 39.82, "2024-06-01"}, h.tim.calls[0])
}

func TestHTTP_EmailTimings(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)

	w := serve(h.router(), http.MethodPost, "/api/prayers/timings/email", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Len(t, h.sender.sent, 1)
}

func TestHTTP_EmailTimingsDisabled(t *testing.T) {
	uc := NewUC(&fakeLocations{l: karachi}, &fakeTimings{}, newFakeLog(), nil, nil, nil, nil, nil)
	h := &harness{uc: uc}

	w := serve(h.router(), http.MethodPost, "/api/prayers/timings/email", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHTTP_Today(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)

	w := serve(h.router(), http.MethodGet, "/api/prayers/today", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []Status `json:"data"`
		Date string   `json:"date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-06-01", body.Date)
	require.Len(t, body.Data, 5)
	assert.Equal(t, "isha", body.Data[4].ID)
}

func TestHTTP_Complete(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)
	r := h.router()

	w := serve(r, http.MethodPost, "/api/prayers/asr/complete", `{"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"prayer_id":"asr","log_date":"2024-06-01","completed":true}}`, w.Body.String())

	w = serve(r, http.MethodPost, "/api/prayers/asr/complete", `{"completed":false,"date":"2024-06-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, h.logs.entries["asr@2024-06-01"].Completed)
}

func TestHTTP_CompleteErrors(t *testing.T) {
	h := newHarness(time.Now(), karachi, nil)
	r := h.router()

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/prayers/witr/complete", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/prayers/fajr/complete", `{"date":"tomorrow"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/prayers/fajr/complete", `{"completed":`).Code)
}

func TestHTTP_CompleteDefaults(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)
	r := h.router()

	w := serve(r, http.MethodPost, "/api/prayers/fajr/complete", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"prayer_id":"fajr","log_date":"2024-06-01","completed":false}}`, w.Body.String())

	w = serve(r, http.MethodPost, "/api/prayers/dhuhr/complete", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"data":{"prayer_id":"dhuhr","log_date":"2024-06-01","completed":false}}`, w.Body.String())
}

func TestHTTP_Day(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)
	h.logs.entries["asr@2024-05-30"] = &prayerlog.Entry{PrayerID: "asr", Date: "2024-05-30", Completed: true}
	r := h.router()

	w := serve(r, http.MethodGet, "/api/prayers?date=2024-05-30", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []Status `json:"data"`
		Date string   `json:"date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-05-30", body.Date)
	require.Len(t, body.Data, 5)
	assert.True(t, body.Data[2].Completed)
	assert.False(t, body.Data[0].Completed)

	w = serve(r, http.MethodGet, "/api/prayers", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-06-01", body.Date)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/prayers?date=30-05-2024", "").Code)
}

func TestHTTP_History(t *testing.T) {
	h := newHarness(at("2024-06-01T10:00:00Z"), karachi, nil)
	h.logs.entries["isha@2024-05-29"] = &prayerlog.Entry{PrayerID: "isha", Date: "2024-05-29", Completed: true}
	h.logs.entries["isha@2024-05-20"] = &prayerlog.Entry{PrayerID: "isha", Date: "2024-05-20", Completed: true}
	r := h.router()

	w := serve(r, http.MethodGet, "/api/prayers/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []DayStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, DefaultHistoryDays)
	assert.Equal(t, "2024-05-26", body.Data[0].Date)
	assert.Equal(t, "2024-06-01", body.Data[6].Date)
	assert.True(t, body.Data[3].Prayers[4].Completed)

	w = serve(r, http.MethodGet, "/api/prayers/history?days=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/prayers/history?days=week", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/prayers/history?days=0", "").Code)
}
