package list

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, actor models.Actor, status models.Status, limit, offset int) ([]models.SubscriberView, error) {
	args := m.Called(ctx, actor, status, limit, offset)
	if res := args.Get(0); res != nil {
		return res.([]models.SubscriberView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestListHandler(t *testing.T) {
	actor := models.NewActor(uuid.New(), models.RoleAdmin)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		url       string
		setupMock func(*MockService)
		wantCode  int
	}{
		{
			name: "filter and paging are passed through",
			url:  "/subscribers?status=inactive&limit=5&offset=10",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, actor, models.StatusInactive, 5, 10).
					Return([]models.SubscriberView{{Subscriber: models.Subscriber{ID: 1}}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "defaults",
			url:  "/subscribers",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, actor, models.Status(""), defaultLimit, 0).
					Return([]models.SubscriberView{}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "derived status cannot be filtered",
			url:       "/subscribers?status=expired",
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			req = req.WithContext(middlewarectx.WithActor(req.Context(), actor))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
