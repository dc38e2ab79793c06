package transport

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/config"
	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region harness

type harness struct {
	srv    *httptest.Server
	hub    *Hub
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithConfig(t, config.Default().Server)
}

func newHarnessWithConfig(t *testing.T, cfg config.ServerConfig) *harness {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), history.DefaultMaxPerClient)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zerolog.Nop()
	hub := NewHub(logger)
	orch := orchestrator.New(
		validate.NewValidator(validate.DefaultConfig()),
		eval.NewEvaluator(),
		logger,
		orchestrator.WithStore(store),
		orchestrator.WithPublisher(hub),
	)
	s := NewServer(cfg, orch, hub, render.NewRenderer(render.Options{
		Size: 120, Fill: "#AAB99A", Axis: "#6F826A", Highlight: "#D9534F",
	}), logger)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{srv: ts, hub: hub, client: &http.Client{Jar: jar}}
}

func (h *harness) postForm(t *testing.T, vals url.Values, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/calculate", strings.NewReader(vals.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (h *harness) clientID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == ClientCookie {
			return c.Value
		}
	}
	t.Fatal("client cookie not set")
	return ""
}

// #endregion harness

// #region calculate-tests

func TestCalculateFormHit(t *testing.T) {
	h := newHarness(t)
	resp := h.postForm(t, url.Values{"x": {"0,5"}, "y": {"-0.25"}, "r": {"1"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[CalculateResponse](t, resp)
	assert.True(t, body.OK)
	assert.True(t, body.Hit)
	assert.Equal(t, "rectangle", body.Shape)
	assert.Equal(t, 0.5, body.X)
	assert.GreaterOrEqual(t, body.DurationMicros, 0.0)
	_, err := time.Parse(time.RFC3339Nano, body.Now)
	assert.NoError(t, err)
	require.Len(t, body.History, 1)
	assert.Equal(t, body.ID, body.History[0].ID)
	assert.NotEmpty(t, h.clientID(t))
}

func TestCalculateJSONNumbersAndStrings(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Post(h.srv.URL+"/calculate", "application/json",
		strings.NewReader(`{"x": -0.3, "y": "-0.3", "r": 1.5}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[CalculateResponse](t, resp)
	assert.True(t, body.Hit)
	assert.Equal(t, "quarter_disk", body.Shape)
	assert.Equal(t, 1.5, body.R)
}

func TestCalculateMissReportsNoShape(t *testing.T) {
	h := newHarness(t)
	resp := h.postForm(t, url.Values{"x": {"3"}, "y": {"3"}, "r": {"2"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw := decode[map[string]interface{}](t, resp)
	assert.Equal(t, false, raw["hit"])
	_, hasShape := raw["shape"]
	assert.False(t, hasShape)
	assert.Contains(t, raw, "durationMicros")
	assert.Contains(t, raw, "now")
}

func TestCalculateValidationListsAllErrors(t *testing.T) {
	h := newHarness(t)
	resp := h.postForm(t, url.Values{"x": {"abc"}, "y": {"9"}, "r": {""}}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[ErrorResponse](t, resp)
	assert.False(t, body.OK)
	assert.Equal(t, []string{"x is not a number", "y must be in [-5, 5]", "r is required"}, body.Errors)
	assert.NotEmpty(t, body.Now)
}

func TestCalculateRejectsOtherMethods(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Get(h.srv.URL + "/calculate")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
	body := decode[ErrorResponse](t, resp)
	assert.False(t, body.OK)
}

func TestCalculateMalformedJSON(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Post(h.srv.URL+"/calculate", "application/json", strings.NewReader(`{"x": `))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = h.client.Post(h.srv.URL+"/calculate", "application/json", strings.NewReader(`{"x": true, "y": 1, "r": 1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, []string{"field x must be a string or number"}, body.Errors)
}

func TestCalculateDoubleSubmitIsIdempotent(t *testing.T) {
	h := newHarness(t)
	hdr := http.Header{RequestIDHeader: {"submit-1"}}
	vals := url.Values{"x": {"0.1"}, "y": {"0.1"}, "r": {"1"}}

	first := decode[CalculateResponse](t, h.postForm(t, vals, hdr))
	second := decode[CalculateResponse](t, h.postForm(t, vals, hdr))

	assert.Equal(t, first.ID, second.ID)
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Len(t, second.History, 1)
}

func TestCalculateRejectsOversizeBody(t *testing.T) {
	cfg := config.Default().Server
	cfg.MaxBodyBytes = 64
	h := newHarnessWithConfig(t, cfg)
	pad := strings.Repeat("9", 200)

	resp := h.postForm(t, url.Values{"x": {"0." + pad}, "y": {"0"}, "r": {"1"}}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.False(t, body.OK)
	assert.Equal(t, []string{"request body too large"}, body.Errors)

	resp, err := h.client.Post(h.srv.URL+"/calculate", "application/json",
		strings.NewReader(`{"x": "0.`+pad+`", "y": "0", "r": "1"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	body = decode[ErrorResponse](t, resp)
	assert.False(t, body.OK)
	assert.Equal(t, []string{"request body too large"}, body.Errors)

	// Small bodies still go through under the same limit.
	resp = h.postForm(t, url.Values{"x": {"0"}, "y": {"0"}, "r": {"1"}}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCalculateRequestIDReusedForDifferentPoint(t *testing.T) {
	h := newHarness(t)
	hdr := http.Header{RequestIDHeader: {"submit-1"}}

	first := decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"0.1"}, "y": {"0.1"}, "r": {"1"}}, hdr))
	require.True(t, first.OK)

	resp := h.postForm(t, url.Values{"x": {"-2"}, "y": {"1"}, "r": {"2"}}, hdr)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.False(t, body.OK)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], `"submit-1"`)

	hist, err := h.client.Get(h.srv.URL + "/history")
	require.NoError(t, err)
	assert.Len(t, decode[HistoryResponse](t, hist).History, 1)
}

// #endregion calculate-tests

// #region history-tests

func TestHistoryListAndClear(t *testing.T) {
	h := newHarness(t)
	a := decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"1"}, "y": {"-0.5"}, "r": {"2"}}, nil))
	b := decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"-4"}, "y": {"4"}, "r": {"2"}}, nil))

	resp, err := h.client.Get(h.srv.URL + "/history")
	require.NoError(t, err)
	list := decode[HistoryResponse](t, resp)
	require.Len(t, list.History, 2)
	assert.Equal(t, b.ID, list.History[0].ID)
	assert.Equal(t, a.ID, list.History[1].ID)

	resp, err = h.client.Get(h.srv.URL + "/history?limit=1")
	require.NoError(t, err)
	assert.Len(t, decode[HistoryResponse](t, resp).History, 1)

	req, err := http.NewRequest(http.MethodDelete, h.srv.URL+"/history", nil)
	require.NoError(t, err)
	resp, err = h.client.Do(req)
	require.NoError(t, err)
	cleared := decode[HistoryResponse](t, resp)
	assert.Equal(t, int64(2), cleared.Removed)

	resp, err = h.client.Get(h.srv.URL + "/history")
	require.NoError(t, err)
	assert.Empty(t, decode[HistoryResponse](t, resp).History)
}

func TestHistoryIsScopedPerClient(t *testing.T) {
	h := newHarness(t)
	decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"0"}, "y": {"0"}, "r": {"1"}}, nil))

	other := &http.Client{}
	resp, err := other.Get(h.srv.URL + "/history")
	require.NoError(t, err)
	assert.Empty(t, decode[HistoryResponse](t, resp).History)
}

func TestHistoryBadLimit(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Get(h.srv.URL + "/history?limit=-3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// #endregion history-tests

// #region misc-route-tests

func TestRegionPNG(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Get(h.srv.URL + "/region.png?r=2&x=0.5&y=-0.5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())

	resp, err = h.client.Get(h.srv.URL + "/region.png?r=7")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Len(t, body.Errors, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]interface{}](t, resp)["status"])

	decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"0"}, "y": {"0"}, "r": {"1"}}, nil))
	resp, err = h.client.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "regioncheck_evaluations_total")
	assert.Contains(t, string(text), `regioncheck_requests_total{route="/calculate",status="200",transport="http"}`)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/calculate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://example.test", resp.Header.Get("Access-Control-Allow-Origin"))
}

// #endregion misc-route-tests

// #region feed-tests

func TestFeedPushesNewRecords(t *testing.T) {
	h := newHarness(t)
	decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"0"}, "y": {"0"}, "r": {"1"}}, nil))
	clientID := h.clientID(t)

	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	hdr := http.Header{"Cookie": {ClientCookie + "=" + clientID}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.hub.Connections(clientID) == 1 }, 2*time.Second, 10*time.Millisecond)

	sent := decode[CalculateResponse](t, h.postForm(t, url.Values{"x": {"0.2"}, "y": {"0.2"}, "r": {"1"}}, nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "record", msg.Type)
	assert.Equal(t, sent.ID, msg.Record.ID)
	assert.True(t, msg.Record.Hit)

	conn.Close()
	require.Eventually(t, func() bool { return h.hub.Connections(clientID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedRequiresClientID(t *testing.T) {
	h := newHarness(t)
	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// #endregion feed-tests

// #region lifecycle-tests

func TestServeShutsDownOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	orch := orchestrator.New(validate.NewValidator(validate.DefaultConfig()), eval.NewEvaluator(), logger)
	s := NewServer(config.Default().Server, orch, nil, render.NewRenderer(render.DefaultOptions()), logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// #endregion lifecycle-tests
