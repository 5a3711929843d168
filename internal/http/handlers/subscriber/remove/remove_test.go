package remove

import (
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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func TestRemoveHandler(t *testing.T) {
	admin := models.NewActor(uuid.New(), models.RoleAdmin)

	tests := []struct {
		name      string
		id        string
		setupMock func(*MockService)
		wantCode  int
	}{
		{
			name: "deleted",
			id:   "8",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, admin, int64(8)).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "missing",
			id:   "9",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, admin, int64(9)).
					Return(fmt.Errorf("subscriber.Delete: %w", models.ErrNotFound))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:      "bad id",
			id:        "x",
			setupMock: func(_ *MockService) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodDelete, "/subscribers/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithActor(ctx, admin))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
