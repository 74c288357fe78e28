package webhookd_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/subsync/pkg/paddle"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/webhookd"
)

type mockParser struct {
	mock.Mock
}

func (m *mockParser) VerifyAndParse(r *http.Request) (reconcile.Event, error) {
	args := m.Called(r)
	return args.Get(0).(reconcile.Event), args.Error(1)
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, event reconcile.Event) {
	m.Called(ctx, event)
}

func post(t *testing.T, router http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/paddle", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("acknowledges verified events with 200", func(t *testing.T) {
		event := reconcile.Event{Kind: reconcile.KindUpdated, Subscription: &reconcile.ProviderSubscription{ExternalID: "sub_1"}}

		parser := new(mockParser)
		handler := new(mockHandler)
		parser.On("VerifyAndParse", mock.Anything).Return(event, nil).Once()
		handler.On("Handle", mock.Anything, event).Once()

		rec := post(t, webhookd.Router(parser, handler))

		assert.Equal(t, http.StatusOK, rec.Code)
		parser.AssertExpectations(t)
		handler.AssertExpectations(t)
	})

	t.Run("acknowledges events the engine ignores", func(t *testing.T) {
		event := reconcile.Event{Kind: reconcile.KindOther}

		parser := new(mockParser)
		handler := new(mockHandler)
		parser.On("VerifyAndParse", mock.Anything).Return(event, nil).Once()
		handler.On("Handle", mock.Anything, event).Once()

		rec := post(t, webhookd.Router(parser, handler))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects unsigned payloads with 401", func(t *testing.T) {
		parser := new(mockParser)
		handler := new(mockHandler)
		parser.On("VerifyAndParse", mock.Anything).Return(reconcile.Event{}, paddle.ErrVerificationFailed).Once()

		rec := post(t, webhookd.Router(parser, handler))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed payloads with 400", func(t *testing.T) {
		parser := new(mockParser)
		handler := new(mockHandler)
		parser.On("VerifyAndParse", mock.Anything).Return(reconcile.Event{}, paddle.ErrMalformedPayload).Once()

		rec := post(t, webhookd.Router(parser, handler))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}
