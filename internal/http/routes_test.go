package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/surface"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/mocks"
	"github.com/target/uxaudit/internal/service"
	"github.com/target/uxaudit/internal/service/notifycenter"
	"github.com/target/uxaudit/internal/testutil"
)

// fakeAudits is an in-memory AuditsService.
type fakeAudits struct {
	mu      sync.Mutex
	started []model.StartAuditRequest
	latest  *model.LatestResult
	audits  map[string]model.Audit
}

func (f *fakeAudits) Start(_ context.Context, req model.StartAuditRequest) (*model.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, req)
	a := testutil.NewAudit("audit-1").Page(req.PageURL, req.PageTitle).Build()
	return &a, nil
}

func (f *fakeAudits) Latest(context.Context) (*model.LatestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeAudits) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = nil
	return nil
}

func (f *fakeAudits) Get(_ context.Context, id string) (*model.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return nil, apperrors.NotFoundf("audit %s not found", id)
	}
	return &a, nil
}

func (f *fakeAudits) List(context.Context) []model.Audit {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Audit, 0, len(f.audits))
	for _, a := range f.audits {
		out = append(out, a)
	}
	return out
}

type routerFixture struct {
	handler http.Handler
	relayer *mocks.MockRelayer
	audits  *fakeAudits
	center  *notifycenter.Service
	broker  *surface.Broker
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := surface.NewBroker()
	t.Cleanup(broker.StopAll)

	f := &routerFixture{
		relayer: mocks.NewMockRelayer(ctrl),
		audits:  &fakeAudits{audits: map[string]model.Audit{}},
		center:  notifycenter.NewService(notifycenter.Options{Focus: broker}),
		broker:  broker,
	}
	f.handler = NewRouter(RouterServices{
		Relayer:       f.relayer,
		Audits:        f.audits,
		Notifications: f.center,
		Focus:         broker,
		MaxImageBytes: 1 << 20,
		Now:           testutil.FixedTimeFunc(testutil.TestTime()),
	})
	return f
}

func (f *routerFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestProxyAudit_ReturnsResult(t *testing.T) {
	f := newRouterFixture(t)
	image := testutil.PNGDataURL(64)
	f.relayer.EXPECT().Relay(gomock.Any(), image).Return("1. [LOW] fine", nil)

	rec := f.do(t, http.MethodPost, "/audit", model.ProxyRequest{Image: image})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.ProxyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1. [LOW] fine", resp.Result)
}

func TestProxyAudit_Errors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPost, "/audit", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "image is required", decodeErrorBody(t, rec)["message"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newRouterFixture(t)
		f.relayer.EXPECT().Relay(gomock.Any(), gomock.Any()).
			Return("", apperrors.Upstream(assert.AnError, "critique service request failed"))
		rec := f.do(t, http.MethodPost, "/audit", model.ProxyRequest{Image: testutil.PNGDataURL(8)})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})

	t.Run("body over limit", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPost, "/audit", model.ProxyRequest{Image: testutil.DataURLOfLength(2 << 20)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodGet, "/audit", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestAudits_StartAcknowledgesImmediately(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/audits", model.StartAuditRequest{
		ImageData: testutil.PNGDataURL(16),
		PageURL:   "https://shop.example.com/cart",
		PageTitle: "Cart",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp model.StartAuditResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, service.StartedAck, resp.Message)
	assert.Equal(t, "audit-1", resp.ID)
	require.Len(t, f.audits.started, 1)
	assert.Equal(t, "Cart", f.audits.started[0].PageTitle)
}

func TestAudits_StartRequiresImage(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodPost, "/api/audits", model.StartAuditRequest{PageURL: "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "imageData is required", decodeErrorBody(t, rec)["message"])
	assert.Empty(t, f.audits.started)
}

func TestAudits_LatestAndClear(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/audits/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":null}`, rec.Body.String())

	stored := testutil.NewLatestResult("a1", "1. [HIGH] tiny tap targets on mobile layout")
	f.audits.latest = &stored
	rec = f.do(t, http.MethodGet, "/api/audits/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.LatestResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Result)
	assert.Equal(t, stored, *got.Result)

	rec = f.do(t, http.MethodDelete, "/api/audits/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Nil(t, f.audits.latest)

	// clearing an empty slot still succeeds
	rec = f.do(t, http.MethodDelete, "/api/audits/latest", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAudits_GetAndList(t *testing.T) {
	f := newRouterFixture(t)
	f.audits.audits["a1"] = testutil.NewAudit("a1").Build()

	rec := f.do(t, http.MethodGet, "/api/audits/a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var audit model.Audit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	assert.Equal(t, "a1", audit.ID)

	rec = f.do(t, http.MethodGet, "/api/audits/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/audits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.AuditListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestAudits_Report(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/audits/latest/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored := testutil.NewLatestResult("a1", testutil.SampleCritique)
	f.audits.latest = &stored

	rec = f.do(t, http.MethodGet, "/api/audits/latest/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "UI/UX Audit Report")

	rec = f.do(t, http.MethodGet, "/api/audits/latest/report?format=pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	wantName := "UI-UX-Audit-" + testutil.TestTime().UTC().Format(time.DateOnly) + ".pdf"
	assert.Contains(t, rec.Header().Get("Content-Disposition"), wantName)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = f.do(t, http.MethodGet, "/api/audits/latest/report?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func completionNotification(auditID string) model.Notification {
	return model.Notification{
		ID:      auditID + "-complete",
		AuditID: auditID,
		Kind:    model.NotificationKindComplete,
		Title:   service.CompletedTitle,
		Message: "No critical issues! Found 1 improvement to review",
		Buttons: []string{"View Results", "Dismiss"},
	}
}

func TestNotifications_ListAndClick(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	require.NoError(t, f.center.Show(ctx, completionNotification("a1")))

	rec := f.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 1)

	rec = f.do(t, http.MethodPost, "/api/notifications/a1-complete/click", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"focused":true}`, rec.Body.String())
	assert.Empty(t, f.center.List())

	pending, ok := f.broker.Pending()
	require.True(t, ok)
	assert.Equal(t, "a1", pending.AuditID)

	rec = f.do(t, http.MethodPost, "/api/notifications/a1-complete/click", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications_Buttons(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	require.NoError(t, f.center.Show(ctx, completionNotification("a2")))

	rec := f.do(t, http.MethodPost, "/api/notifications/a2-complete/buttons/x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/notifications/a2-complete/buttons/7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/notifications/a2-complete/buttons/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"focused":false}`, rec.Body.String())
	assert.Empty(t, f.center.List())
	_, ok := f.broker.Pending()
	assert.False(t, ok)
}

func TestAwaitFocus(t *testing.T) {
	t.Run("pending request answers immediately", func(t *testing.T) {
		f := newRouterFixture(t)
		f.broker.Request("a3")

		rec := f.do(t, http.MethodGet, "/api/surface/focus?wait=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp model.FocusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Focus)
		assert.Equal(t, "a3", resp.AuditID)
	})

	t.Run("times out with no content", func(t *testing.T) {
		f := newRouterFixture(t)
		start := time.Now()
		rec := f.do(t, http.MethodGet, "/api/surface/focus?wait=0", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	})
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCORS_Preflight(t *testing.T) {
	f := newRouterFixture(t)
	handler := CORS([]string{"chrome-extension://uxaudit"})(f.handler)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/audit", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("chrome-extension://uxaudit")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "chrome-extension://uxaudit", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	rec = preflight("https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SimpleRequestAndDisabled(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	CORS([]string{"*"})(f.handler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS(nil)(f.handler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// Without the middleware the mux rejects OPTIONS.
	opt := httptest.NewRequest(http.MethodOptions, "/audit", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, opt)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
