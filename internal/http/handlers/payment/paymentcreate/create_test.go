package paymentcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RecordPayment(ctx context.Context, actor models.Actor, id int64, in models.PaymentInput) (*models.Payment, *models.SubscriberView, error) {
	args := m.Called(ctx, actor, id, in)
	p, _ := args.Get(0).(*models.Payment)
	v, _ := args.Get(1).(*models.SubscriberView)
	return p, v, args.Error(2)
}

func newRequest(body string, actor models.Actor) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/subscribers/4/payments", bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "4")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middlewarectx.WithActor(ctx, actor))
}

func TestPaymentCreateHandler(t *testing.T) {
	staff := models.NewActor(uuid.New(), models.RoleStaff)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		body      string
		setupMock func(*MockService)
		wantCode  int
		check     func(t *testing.T, body []byte)
	}{
		{
			name: "two months",
			body: `{"periods":[{"year":2082,"month":9},{"year":2082,"month":10}],"receipt_number":"R-1"}`,
			setupMock: func(m *MockService) {
				in := models.PaymentInput{
					Periods:       []models.Period{{Year: 2082, Month: 9}, {Year: 2082, Month: 10}},
					ReceiptNumber: "R-1",
				}
				m.On("RecordPayment", mock.Anything, staff, int64(4), in).Return(
					&models.Payment{ID: 11, SubscriberID: 4, AmountPaid: decimal.NewFromInt(1000), CoveredPeriods: in.Periods},
					&models.SubscriberView{Subscriber: models.Subscriber{ID: 4, Status: models.StatusActive, SubscriptionEnd: end}, DisplayStatus: models.StatusActive},
					nil,
				)
			},
			wantCode: http.StatusCreated,
			check: func(t *testing.T, body []byte) {
				var resp struct {
					Data struct {
						Payment    models.Payment        `json:"payment"`
						Subscriber models.SubscriberView `json:"subscriber"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, decimal.NewFromInt(1000).Equal(resp.Data.Payment.AmountPaid))
				assert.Equal(t, models.StatusActive, resp.Data.Subscriber.Status)
				assert.True(t, end.Equal(resp.Data.Subscriber.SubscriptionEnd))
			},
		},
		{
			name:      "no periods",
			body:      `{"periods":[]}`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusUnprocessableEntity,
		},
		{
			name:      "month out of range",
			body:      `{"periods":[{"year":2082,"month":12}]}`,
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusUnprocessableEntity,
		},
		{
			name: "duplicate period",
			body: `{"periods":[{"year":2082,"month":3},{"year":2082,"month":3}]}`,
			setupMock: func(m *MockService) {
				m.On("RecordPayment", mock.Anything, staff, int64(4), mock.Anything).
					Return(nil, nil, fmt.Errorf("billing.Resolve: %w", billing.ErrDuplicatePeriod))
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "subscriber missing",
			body: `{"periods":[{"year":2082,"month":3}]}`,
			setupMock: func(m *MockService) {
				m.On("RecordPayment", mock.Anything, staff, int64(4), mock.Anything).
					Return(nil, nil, models.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, newRequest(tt.body, staff))

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
			svc.AssertExpectations(t)
		})
	}
}
