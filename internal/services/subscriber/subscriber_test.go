package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-billing/internal/lib/billing"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/calendar"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/clock"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
	"github.com/magabrotheeeer/subscription-billing/internal/permission"
)

type MockRepository struct {
	mock.Mock
	transitions []models.Transition
}

func (m *MockRepository) CreateSubscriber(ctx context.Context, sub models.Subscriber, audit models.AuditRecord) (*models.Subscriber, error) {
	args := m.Called(ctx, sub, audit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func (m *MockRepository) GetSubscriber(ctx context.Context, id int64) (*models.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func (m *MockRepository) ListSubscribers(ctx context.Context, status models.Status, limit, offset int) ([]*models.Subscriber, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscriber), args.Error(1)
}

// MutateSubscriber вызывает fn с подписчиком из ожидания и применяет переход в памяти.
func (m *MockRepository) MutateSubscriber(ctx context.Context, id int64, fn func(models.Subscriber) (models.Transition, error)) (models.MutationResult, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return models.MutationResult{}, err
	}
	cur := args.Get(0).(models.Subscriber)
	tr, err := fn(cur)
	if err != nil {
		return models.MutationResult{}, err
	}
	m.transitions = append(m.transitions, tr)
	if tr.Subscriber == nil && tr.Payment == nil && len(tr.Audit) == 0 && !tr.Delete {
		return models.MutationResult{Subscriber: &cur}, nil
	}
	res := models.MutationResult{Subscriber: &cur, Applied: true}
	if tr.Subscriber != nil {
		res.Subscriber = tr.Subscriber
	}
	if tr.Delete {
		res.Subscriber = nil
	}
	if tr.Payment != nil {
		p := *tr.Payment
		p.ID = 100
		res.Payment = &p
	}
	return res, nil
}

func (m *MockRepository) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) ListPayments(ctx context.Context, subscriberID int64) ([]*models.Payment, error) {
	args := m.Called(ctx, subscriberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockRepository) UpdatePayment(ctx context.Context, id int64, patch models.PaymentPatch, audit models.AuditRecord) (*models.Payment, error) {
	args := m.Called(ctx, id, patch, audit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockRepository) DeletePayment(ctx context.Context, id int64, audit models.AuditRecord) error {
	args := m.Called(ctx, id, audit)
	return args.Error(0)
}

func (m *MockRepository) lastTransition(t *testing.T) models.Transition {
	t.Helper()
	require.NotEmpty(t, m.transitions)
	return m.transitions[len(m.transitions)-1]
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) SetNX(key string, value any, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var (
	staffActor = models.NewActor(uuid.New(), models.RoleStaff)
	adminActor = models.NewActor(uuid.New(), models.RoleAdmin)
)

type fixture struct {
	svc   *Service
	repo  *MockRepository
	cache *MockCache
	cal   *calendar.Adapter
	clock *clock.Fixed
}

// now 2082-10-05 12:00 UTC (2026-01-19).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cal, err := calendar.NewDefault(time.UTC)
	require.NoError(t, err)
	clk := clock.NewFixed(time.Date(2026, 1, 19, 12, 0, 0, 0, time.UTC))
	repo := new(MockRepository)
	cache := new(MockCache)
	cache.On("Invalidate", mock.Anything).Return(nil).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	cache.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	svc := NewSubscriberService(repo, cache, permission.MustNew(), billing.New(cal), cal, clk, time.Second, newNoopLogger())
	return &fixture{svc: svc, repo: repo, cache: cache, cal: cal, clock: clk}
}

func activeSubscriber() models.Subscriber {
	return models.Subscriber{
		ID:                 1,
		Name:               "Ram",
		Email:              "ram@example.com",
		Frequency:          models.FrequencyMonthly,
		Rate:               decimal.NewFromInt(500),
		ReminderDaysBefore: 7,
		SubscriptionEnd:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:             models.StatusActive,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	req := models.NewSubscriber{
		Name:               "Ram",
		Email:              "ram@example.com",
		Frequency:          models.FrequencyMonthly,
		Rate:               decimal.NewFromInt(500),
		ReminderDaysBefore: 7,
	}
	// 2082-10-05 + 1 month = 2082-11-05 = 2026-02-17.
	wantEnd := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)

	f.repo.On("CreateSubscriber", mock.Anything,
		mock.MatchedBy(func(sub models.Subscriber) bool {
			return sub.Status == models.StatusActive && sub.SubscriptionEnd.Equal(wantEnd)
		}),
		mock.MatchedBy(func(a models.AuditRecord) bool {
			return a.ActionType == models.ActionSubscriberCreated && *a.ActorRole == models.RoleStaff
		}),
	).Return(&models.Subscriber{ID: 5, Name: "Ram", SubscriptionEnd: wantEnd, Status: models.StatusActive}, nil).Once()

	got, err := f.svc.Create(context.Background(), staffActor, req)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, models.StatusActive, got.DisplayStatus)
	assert.Equal(t, "2082-11-05", got.EndDisplay)
	f.repo.AssertExpectations(t)
	f.cache.AssertCalled(t, "Set", "subscriber:5", mock.Anything, cardTTL)
}

func TestCreate_Rejected(t *testing.T) {
	f := newFixture(t)
	req := models.NewSubscriber{Name: "Ram", Frequency: models.FrequencyMonthly, Rate: decimal.NewFromInt(500), ReminderDaysBefore: 7}

	_, err := f.svc.Create(context.Background(), models.SystemActor, req)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	req.Rate = decimal.Zero
	_, err = f.svc.Create(context.Background(), staffActor, req)
	assert.ErrorIs(t, err, billing.ErrInvalidRate)

	f.repo.AssertNotCalled(t, "CreateSubscriber", mock.Anything, mock.Anything, mock.Anything)
}

func TestGet_UsesCache(t *testing.T) {
	f := newFixture(t)
	cached := activeSubscriber()

	cache := new(MockCache)
	cache.On("Get", "subscriber:1", mock.Anything).Run(func(args mock.Arguments) {
		*(args.Get(1).(*cacheEntry)) = cacheEntry{Subscriber: &cached}
	}).Return(true, nil).Once()
	f.svc.cache = cache

	got, err := f.svc.Get(context.Background(), staffActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ram", got.Name)
	// Окончание 2026-01-15 раньше текущего момента.
	assert.Equal(t, models.StatusExpired, got.DisplayStatus)
	assert.Equal(t, models.StatusActive, got.Status)
	f.repo.AssertNotCalled(t, "GetSubscriber", mock.Anything, mock.Anything)
}

func TestGet_CacheMiss(t *testing.T) {
	f := newFixture(t)
	sub := activeSubscriber()
	sub.SubscriptionEnd = time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)

	cache := new(MockCache)
	cache.On("Get", "subscriber:1", mock.Anything).Return(false, errors.New("redis down")).Once()
	cache.On("SetNX", "subscriber:1", cacheEntry{Subscriber: &sub}, cardTTL).Return(true, nil).Once()
	f.svc.cache = cache
	f.repo.On("GetSubscriber", mock.Anything, int64(1)).Return(&sub, nil).Once()

	got, err := f.svc.Get(context.Background(), staffActor, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.DisplayStatus)
	assert.Equal(t, "2082-11-01", got.EndDisplay)
	cache.AssertExpectations(t)

	f.repo.On("GetSubscriber", mock.Anything, int64(2)).Return(nil, models.ErrNotFound).Once()
	cache.On("Get", "subscriber:2", mock.Anything).Return(false, nil).Once()
	_, err = f.svc.Get(context.Background(), staffActor, 2)
	assert.ErrorIs(t, err, models.ErrNotFound)
	cache.AssertNotCalled(t, "SetNX", "subscriber:2", mock.Anything, mock.Anything)
}

func TestGet_DeletedEntry(t *testing.T) {
	f := newFixture(t)

	cache := new(MockCache)
	cache.On("Get", "subscriber:1", mock.Anything).Run(func(args mock.Arguments) {
		*(args.Get(1).(*cacheEntry)) = cacheEntry{Deleted: true}
	}).Return(true, nil).Once()
	f.svc.cache = cache

	_, err := f.svc.Get(context.Background(), staffActor, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	f.repo.AssertNotCalled(t, "GetSubscriber", mock.Anything, mock.Anything)
}

func TestRecordPayment(t *testing.T) {
	tests := []struct {
		name    string
		status  models.Status
		notes   string
		periods []models.Period
		amount  int64
		wantEnd time.Time
	}{
		{
			name:    "active subscriber single month",
			status:  models.StatusActive,
			periods: []models.Period{{Year: 2082, Month: 9}},
			amount:  500,
			wantEnd: time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "inactive subscriber is reactivated and notes cleared",
			status:  models.StatusInactive,
			notes:   "Auto-deactivated",
			periods: []models.Period{{Year: 2082, Month: 10}, {Year: 2082, Month: 9}},
			amount:  1000,
			wantEnd: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "cancelled subscriber is reactivated",
			status:  models.StatusCancelled,
			periods: []models.Period{{Year: 2082, Month: 11}},
			amount:  500,
			wantEnd: time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cur := activeSubscriber()
			cur.Status = tt.status
			cur.StatusNotes = tt.notes
			f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(cur, nil).Once()

			payment, view, err := f.svc.RecordPayment(context.Background(), staffActor, 1,
				models.PaymentInput{Periods: tt.periods, ReceiptNumber: "R-1"})
			require.NoError(t, err)

			assert.True(t, decimal.NewFromInt(tt.amount).Equal(payment.AmountPaid))
			assert.Equal(t, "R-1", payment.ReceiptNumber)
			assert.Equal(t, staffActor.ID, payment.RecordedBy)
			assert.True(t, f.clock.Now().Equal(payment.PaymentDate))
			assert.Equal(t, models.StatusActive, view.Status)
			assert.Empty(t, view.StatusNotes)
			assert.True(t, tt.wantEnd.Equal(view.SubscriptionEnd), "want %s, got %s", tt.wantEnd, view.SubscriptionEnd)

			tr := f.repo.lastTransition(t)
			require.Len(t, tr.Audit, 1)
			assert.Equal(t, models.ActionPaymentCreated, tr.Audit[0].ActionType)
			assert.Equal(t, models.TablePayments, tr.Audit[0].TargetTable)
			f.cache.AssertCalled(t, "Set", "subscriber:1", mock.MatchedBy(func(e cacheEntry) bool {
				return e.Subscriber != nil && e.Subscriber.Status == models.StatusActive && e.Subscriber.SubscriptionEnd.Equal(tt.wantEnd)
			}), cardTTL)
			f.cache.AssertNotCalled(t, "Invalidate", mock.Anything)
		})
	}
}

func TestRecordPayment_Errors(t *testing.T) {
	f := newFixture(t)
	f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(activeSubscriber(), nil)
	f.repo.On("MutateSubscriber", mock.Anything, int64(2)).Return(models.Subscriber{}, models.ErrNotFound)

	_, _, err := f.svc.RecordPayment(context.Background(), staffActor, 1,
		models.PaymentInput{Periods: []models.Period{{Year: 2082, Month: 3}, {Year: 2082, Month: 3}}})
	assert.ErrorIs(t, err, billing.ErrDuplicatePeriod)

	_, _, err = f.svc.RecordPayment(context.Background(), staffActor, 1,
		models.PaymentInput{Periods: []models.Period{{Year: 2082, Month: 12}}})
	assert.ErrorIs(t, err, models.ErrInvalidCalendarDate)

	_, _, err = f.svc.RecordPayment(context.Background(), staffActor, 2,
		models.PaymentInput{Periods: []models.Period{{Year: 2082, Month: 3}}})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, _, err = f.svc.RecordPayment(context.Background(), models.SystemActor, 1,
		models.PaymentInput{Periods: []models.Period{{Year: 2082, Month: 3}}})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Empty(t, f.repo.transitions)
}

func TestManualToggle(t *testing.T) {
	tests := []struct {
		name        string
		actor       models.Actor
		current     models.Status
		desired     models.Status
		wantErr     error
		wantApplied bool
	}{
		{name: "staff cannot toggle", actor: staffActor, current: models.StatusActive, desired: models.StatusInactive, wantErr: models.ErrUnauthorized},
		{name: "admin deactivates", actor: adminActor, current: models.StatusActive, desired: models.StatusInactive, wantApplied: true},
		{name: "admin activates", actor: adminActor, current: models.StatusInactive, desired: models.StatusActive, wantApplied: true},
		{name: "same status is a no-op", actor: adminActor, current: models.StatusActive, desired: models.StatusActive},
		{name: "cancelled cannot be toggled", actor: adminActor, current: models.StatusCancelled, desired: models.StatusActive, wantErr: models.ErrInconsistentState},
		{name: "expired is not a manual target", actor: adminActor, current: models.StatusActive, desired: models.StatusExpired, wantErr: models.ErrInconsistentState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cur := activeSubscriber()
			cur.Status = tt.current
			cur.StatusNotes = "note"
			f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(cur, nil).Maybe()

			view, err := f.svc.ManualToggle(context.Background(), tt.actor, 1, tt.desired)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.desired, view.Status)
			assert.True(t, cur.SubscriptionEnd.Equal(view.SubscriptionEnd))

			tr := f.repo.lastTransition(t)
			if !tt.wantApplied {
				assert.Empty(t, tr.Audit)
				return
			}
			require.Len(t, tr.Audit, 1)
			assert.Equal(t, models.ActionSubscriberUpdated, tr.Audit[0].ActionType)
			assert.Equal(t, tt.actor.ID, tr.Audit[0].ActorID)
			if tt.desired == models.StatusActive {
				assert.Empty(t, view.StatusNotes)
			}
		})
	}
}

func TestGraceExpire(t *testing.T) {
	// asOf = 2026-01-19; grace = 3 days.
	asOf := time.Date(2026, 1, 19, 0, 5, 0, 0, time.UTC)

	tests := []struct {
		name        string
		status      models.Status
		end         time.Time
		wantApplied bool
		wantErr     error
	}{
		{name: "overdue by 4 days is deactivated", status: models.StatusActive, end: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), wantApplied: true},
		{name: "overdue by exactly grace is kept", status: models.StatusActive, end: time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)},
		{name: "not yet overdue", status: models.StatusActive, end: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{name: "already inactive is a no-op", status: models.StatusInactive, end: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "cancelled is inconsistent", status: models.StatusCancelled, end: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), wantErr: models.ErrInconsistentState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cur := activeSubscriber()
			cur.Status = tt.status
			cur.SubscriptionEnd = tt.end
			f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(cur, nil).Once()

			sub, applied, err := f.svc.GraceExpire(context.Background(), 1, asOf, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantApplied, applied)
			if !tt.wantApplied {
				assert.Equal(t, tt.status, sub.Status)
				assert.Empty(t, f.repo.lastTransition(t).Audit)
				return
			}
			assert.Equal(t, models.StatusInactive, sub.Status)
			assert.Equal(t, "Auto-deactivated on 2082-10-05: overdue by 4 days (grace period 3 days)", sub.StatusNotes)
			assert.True(t, tt.end.Equal(sub.SubscriptionEnd))

			tr := f.repo.lastTransition(t)
			require.Len(t, tr.Audit, 1)
			assert.Nil(t, tr.Audit[0].ActorID)
			assert.Nil(t, tr.Audit[0].ActorRole)
			assert.Equal(t, models.ActionSubscriberUpdated, tr.Audit[0].ActionType)
		})
	}
}

func TestUpdateEndDate(t *testing.T) {
	f := newFixture(t)
	f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(activeSubscriber(), nil)

	_, err := f.svc.UpdateEndDate(context.Background(), adminActor, 1, calendar.Date{Year: 2082, Month: 6, Day: 32})
	assert.ErrorIs(t, err, models.ErrInvalidCalendarDate)

	_, err = f.svc.UpdateEndDate(context.Background(), staffActor, 1, calendar.Date{Year: 2082, Month: 10, Day: 1})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	view, err := f.svc.UpdateEndDate(context.Background(), adminActor, 1, calendar.Date{Year: 2082, Month: 10, Day: 1})
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC).Equal(view.SubscriptionEnd))
	assert.Equal(t, models.StatusActive, view.Status)
	assert.Equal(t, "2082-11-01", view.EndDisplay)

	tr := f.repo.lastTransition(t)
	require.Len(t, tr.Audit, 1)
	assert.Equal(t, "subscription_end", tr.Audit[0].Metadata["field"])
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(activeSubscriber(), nil).Once()

	assert.ErrorIs(t, f.svc.Delete(context.Background(), staffActor, 1), models.ErrUnauthorized)
	require.NoError(t, f.svc.Delete(context.Background(), adminActor, 1))

	tr := f.repo.lastTransition(t)
	assert.True(t, tr.Delete)
	require.Len(t, tr.Audit, 1)
	assert.Equal(t, models.ActionSubscriberDeleted, tr.Audit[0].ActionType)
	f.cache.AssertCalled(t, "Set", "subscriber:1", cacheEntry{Deleted: true}, tombstoneTTL)
}

func TestCacheWriteFailureDropsEntry(t *testing.T) {
	f := newFixture(t)
	cache := new(MockCache)
	cache.On("Set", "subscriber:1", mock.Anything, cardTTL).Return(errors.New("redis down")).Once()
	cache.On("Invalidate", "subscriber:1").Return(nil).Once()
	f.svc.cache = cache

	cur := activeSubscriber()
	f.repo.On("MutateSubscriber", mock.Anything, int64(1)).Return(cur, nil).Once()

	view, err := f.svc.ManualToggle(context.Background(), adminActor, 1, models.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, view.Status)
	cache.AssertExpectations(t)
}

func TestPayments(t *testing.T) {
	f := newFixture(t)
	payment := &models.Payment{ID: 7, SubscriberID: 1, AmountPaid: decimal.NewFromInt(500), ReceiptNumber: "R-1"}

	f.repo.On("GetSubscriber", mock.Anything, int64(1)).Return(&models.Subscriber{ID: 1}, nil)
	f.repo.On("GetSubscriber", mock.Anything, int64(9)).Return(nil, models.ErrNotFound)
	f.repo.On("ListPayments", mock.Anything, int64(1)).Return(nil, nil).Once()
	f.repo.On("GetPayment", mock.Anything, int64(7)).Return(payment, nil)

	list, err := f.svc.ListPayments(context.Background(), staffActor, 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = f.svc.ListPayments(context.Background(), staffActor, 9)
	assert.ErrorIs(t, err, models.ErrNotFound)

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.UpdatePayment(context.Background(), adminActor, 7, models.PaymentPatch{AmountPaid: &negative})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	receipt := "R-2"
	f.repo.On("UpdatePayment", mock.Anything, int64(7), models.PaymentPatch{ReceiptNumber: &receipt},
		mock.MatchedBy(func(a models.AuditRecord) bool {
			return a.ActionType == models.ActionPaymentUpdated && a.Metadata["subscriber_id"] == int64(1)
		}),
	).Return(&models.Payment{ID: 7, ReceiptNumber: receipt}, nil).Once()
	updated, err := f.svc.UpdatePayment(context.Background(), adminActor, 7, models.PaymentPatch{ReceiptNumber: &receipt})
	require.NoError(t, err)
	assert.Equal(t, "R-2", updated.ReceiptNumber)

	_, err = f.svc.UpdatePayment(context.Background(), staffActor, 7, models.PaymentPatch{ReceiptNumber: &receipt})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	f.repo.On("DeletePayment", mock.Anything, int64(7),
		mock.MatchedBy(func(a models.AuditRecord) bool { return a.ActionType == models.ActionPaymentDeleted }),
	).Return(nil).Once()
	require.NoError(t, f.svc.DeletePayment(context.Background(), adminActor, 7))

	f.repo.AssertExpectations(t)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	sub := activeSubscriber()
	f.repo.On("ListSubscribers", mock.Anything, models.StatusActive, 10, 0).Return([]*models.Subscriber{&sub}, nil).Once()

	views, err := f.svc.List(context.Background(), staffActor, models.StatusActive, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusExpired, views[0].DisplayStatus)
}
