package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/mocks"
	"github.com/target/uxaudit/internal/observability/statsd"
	"github.com/target/uxaudit/internal/testutil"
)

func newProxy(t *testing.T, critic *mocks.MockCritic, cfg ProxyConfig) (*ProxyService, *statsd.Recorder) {
	t.Helper()
	rec := statsd.NewRecorder()
	svc, err := NewProxyService(ProxyServiceOptions{Critic: critic, Config: cfg, Metrics: rec})
	require.NoError(t, err)
	return svc, rec
}

func TestNewProxyService_RequiresCritic(t *testing.T) {
	_, err := NewProxyService(ProxyServiceOptions{})
	require.Error(t, err)
}

func TestProxyService_Relay(t *testing.T) {
	ctrl := gomock.NewController(t)
	critic := mocks.NewMockCritic(ctrl)
	svc, rec := newProxy(t, critic, ProxyConfig{MaxImageBytes: 1 << 20})

	image := testutil.PNGDataURL(64)
	critic.EXPECT().Critique(gomock.Any(), image).Return("1. [HIGH] Fix it", nil)

	text, err := svc.Relay(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "1. [HIGH] Fix it", text)

	relays := rec.Named("proxy.relay")
	require.Len(t, relays, 1)
	assert.Equal(t, "success", relays[0].Tags["result"])
}

func TestProxyService_RelayValidation(t *testing.T) {
	tests := []struct {
		name  string
		image string
		check func(error) bool
	}{
		{"empty", "", apperrors.IsValidation},
		{"whitespace", "   ", apperrors.IsValidation},
		{"not a data url", "https://example.com/shot.png", apperrors.IsValidation},
		{"not an image", "data:text/plain;base64,AAAA", apperrors.IsValidation},
		{"not base64", "data:image/png,AAAA", apperrors.IsValidation},
		{"too large", testutil.DataURLOfLength(2048), apperrors.IsPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			critic := mocks.NewMockCritic(ctrl)
			svc, rec := newProxy(t, critic, ProxyConfig{MaxImageBytes: 1024})

			_, err := svc.Relay(context.Background(), tt.image)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)

			relays := rec.Named("proxy.relay")
			require.Len(t, relays, 1)
			assert.Equal(t, "error", relays[0].Tags["result"])
		})
	}
}

func TestProxyService_RelayUpstreamFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	critic := mocks.NewMockCritic(ctrl)
	svc, _ := newProxy(t, critic, ProxyConfig{})

	cause := errors.New("connection reset")
	critic.EXPECT().Critique(gomock.Any(), gomock.Any()).Return("", cause).Times(1)

	_, err := svc.Relay(context.Background(), testutil.PNGDataURL(16))
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.ErrorIs(t, err, cause)
}

func TestProxyService_RelayKeepsAppErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	critic := mocks.NewMockCritic(ctrl)
	svc, _ := newProxy(t, critic, ProxyConfig{})

	open := &apperrors.AppError{Code: apperrors.ErrCodeUnavailable, Message: "breaker open"}
	critic.EXPECT().Critique(gomock.Any(), gomock.Any()).Return("", open)

	_, err := svc.Relay(context.Background(), testutil.PNGDataURL(16))
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestProxyService_Normalize(t *testing.T) {
	ctrl := gomock.NewController(t)
	critic := mocks.NewMockCritic(ctrl)
	svc, _ := newProxy(t, critic, ProxyConfig{NormalizeText: true})

	critic.EXPECT().Critique(gomock.Any(), gomock.Any()).
		Return("1. [HIGH] The “Sign in” button’s label — too small… ok", nil)

	text, err := svc.Relay(context.Background(), testutil.PNGDataURL(16))
	require.NoError(t, err)
	assert.Equal(t, `1. [HIGH] The "Sign in" button's label - too small... ok`, text)
}

func TestNormalizeCritique_LeavesASCIIUntouched(t *testing.T) {
	in := testutil.SampleCritique
	assert.Equal(t, in, NormalizeCritique(in))
	assert.False(t, strings.ContainsRune(NormalizeCritique("a–b"), '–'))
}

func TestNormalizeCritique_FoldsOnlyTypography(t *testing.T) {
	tests := map[string]string{
		"Wait…":               "Wait...",
		"16\u00A0px padding":  "16 px padding",
		"42\u202F% contrast":  "42 % contrast",
		"m² area":             "m² area",
		"½ inch gutter":       "½ inch gutter",
		"Brand™ logo":         "Brand™ logo",
		"ﬁle menu":            "ﬁle menu",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCritique(in), "input %q", in)
	}
	assert.Equal(t, `Use "Save" - not 'OK'`, NormalizeCritique("Use “Save” — not ‘OK’"))
}
