package paymentupdate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/services/subscriber"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdatePayment(ctx context.Context, actor models.Actor, paymentID int64, patch models.PaymentPatch) (*models.Payment, error) {
	args := m.Called(ctx, actor, paymentID, patch)
	p, _ := args.Get(0).(*models.Payment)
	return p, args.Error(1)
}

func TestPaymentUpdateHandler(t *testing.T) {
	admin := models.NewActor(uuid.New(), models.RoleAdmin)

	tests := []struct {
		name      string
		body      string
		setupMock func(*MockService)
		wantCode  int
	}{
		{
			name: "receipt fixed",
			body: `{"receipt_number":"R-2"}`,
			setupMock: func(m *MockService) {
				m.On("UpdatePayment", mock.Anything, admin, int64(7), mock.MatchedBy(func(p models.PaymentPatch) bool {
					return p.ReceiptNumber != nil && *p.ReceiptNumber == "R-2" && p.AmountPaid == nil
				})).Return(&models.Payment{ID: 7, ReceiptNumber: "R-2"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "negative amount",
			body: `{"amount_paid":"-5"}`,
			setupMock: func(m *MockService) {
				m.On("UpdatePayment", mock.Anything, admin, int64(7), mock.Anything).
					Return(nil, fmt.Errorf("subscriber.UpdatePayment: %w", subscriber.ErrInvalidAmount))
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "broken body",
			body:      `[`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPatch, "/payments/7", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "7")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithActor(ctx, admin))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
