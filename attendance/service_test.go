package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"hrms/apperr"
	"hrms/auth"
	"hrms/models"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (s *stubClock) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *stubClock) set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t
}

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]*models.AttendanceRecord
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]*models.AttendanceRecord)}
}

func dayKey(accountID string, day time.Time) string {
	return accountID + "/" + day.Format(time.DateOnly)
}

func (r *fakeAttendanceRepo) FindDay(_ context.Context, accountID string, day time.Time, _ bool) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[dayKey(accountID, day)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	c := *rec
	return &c, nil
}

func (r *fakeAttendanceRepo) Create(_ context.Context, record *models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(record.AccountID, record.WorkDate)
	if _, ok := r.records[key]; ok {
		return ErrAlreadyCheckedIn
	}
	c := *record
	r.records[key] = &c
	return nil
}

func (r *fakeAttendanceRepo) Save(_ context.Context, record *models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *record
	r.records[dayKey(record.AccountID, record.WorkDate)] = &c
	return nil
}

func (r *fakeAttendanceRepo) ListByAccount(_ context.Context, accountID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AttendanceRecord
	for _, rec := range r.records {
		if rec.AccountID == accountID && !rec.WorkDate.Before(from) && !rec.WorkDate.After(to) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.After(out[j].WorkDate) })
	return out, nil
}

func (r *fakeAttendanceRepo) ListByDate(_ context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AttendanceRecord
	for _, rec := range r.records {
		if rec.WorkDate.Equal(day) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

var employee = &auth.Claims{AccountID: "OIJD20260001", Role: models.RoleEmployee}

func newTestService(t *testing.T, opts Options) (*Service, *fakeAttendanceRepo, *stubClock) {
	t.Helper()
	repo := newFakeAttendanceRepo()
	clk := &stubClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	return NewService(repo, clk, nil, opts), repo, clk
}

func TestService_CheckInCheckOut_SameDay(t *testing.T) {
	t.Parallel()

	svc, repo, clk := newTestService(t, Options{})
	ctx := context.Background()

	in, err := svc.CheckIn(ctx, employee)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if in.Status != models.AttendancePresent {
		t.Fatalf("expected PRESENT, got %s", in.Status)
	}

	clk.set(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	out, err := svc.CheckOut(ctx, employee)
	if err != nil {
		t.Fatalf("CheckOut returned error: %v", err)
	}

	stored, err := repo.FindDay(ctx, employee.AccountID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), false)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if stored.CheckIn == nil || !stored.CheckIn.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check-in %v", stored.CheckIn)
	}
	if stored.CheckOut == nil || !stored.CheckOut.Equal(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check-out %v", stored.CheckOut)
	}
	if out.WorkedDuration() != 9*time.Hour {
		t.Fatalf("expected 9h worked, got %s", out.WorkedDuration())
	}
	if stored.Status != models.AttendancePresent {
		t.Fatalf("check-out must not change status, got %s", stored.Status)
	}
}

func TestService_CheckOut_BeforeCheckIn(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, Options{})
	_, err := svc.CheckOut(context.Background(), employee)
	if !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("expected ErrNotCheckedIn, got %v", err)
	}
}

func TestService_CheckIn_Twice(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, employee); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	clk.set(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	_, err := svc.CheckIn(ctx, employee)
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", apperr.KindOf(err))
	}

	// The next calendar day starts a fresh record.
	clk.set(time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC))
	if _, err := svc.CheckIn(ctx, employee); err != nil {
		t.Fatalf("CheckIn on next day returned error: %v", err)
	}
}

func TestService_CheckOut_Twice(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, employee); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	clk.set(time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC))
	if _, err := svc.CheckOut(ctx, employee); err != nil {
		t.Fatalf("CheckOut returned error: %v", err)
	}
	clk.set(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	if _, err := svc.CheckOut(ctx, employee); !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Fatalf("expected ErrAlreadyCheckedOut, got %v", err)
	}
}

func TestService_CheckOut_NotAfterCheckIn(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, employee); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	_, err := svc.CheckOut(ctx, employee)
	if !errors.Is(err, ErrCheckOutNotAfterCheckIn) {
		t.Fatalf("expected ErrCheckOutNotAfterCheckIn, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", apperr.KindOf(err))
	}
}

func TestService_CheckIn_HalfDayThreshold(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t, Options{HalfDayAfter: 13 * time.Hour})
	ctx := context.Background()

	clk.set(time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC))
	onTime, err := svc.CheckIn(ctx, employee)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if onTime.Status != models.AttendancePresent {
		t.Fatalf("check-in at the threshold is PRESENT, got %s", onTime.Status)
	}

	other := &auth.Claims{AccountID: "OIJS20260002", Role: models.RoleEmployee}
	clk.set(time.Date(2026, 3, 2, 13, 1, 0, 0, time.UTC))
	late, err := svc.CheckIn(ctx, other)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if late.Status != models.AttendanceHalfDay {
		t.Fatalf("expected HALF_DAY, got %s", late.Status)
	}
}

func TestService_CheckIn_UsesConfiguredLocation(t *testing.T) {
	t.Parallel()

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	svc, _, clk := newTestService(t, Options{Location: kolkata})

	// 20:00 UTC is 01:30 the next morning in Kolkata.
	clk.set(time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))
	rec, err := svc.CheckIn(context.Background(), employee)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	if !rec.WorkDate.Equal(want) {
		t.Fatalf("expected work date %s, got %s", want, rec.WorkDate)
	}
	if rec.CheckIn.Location() != time.UTC {
		t.Fatalf("timestamps are stored in UTC")
	}
}

func TestService_CheckIn_ClaimsSyntheticRecord(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	absent := &models.AttendanceRecord{ID: uuid.New(), AccountID: employee.AccountID, WorkDate: day, Status: models.AttendanceAbsent}
	if err := repo.Create(ctx, absent); err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	rec, err := svc.CheckIn(ctx, employee)
	if err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	if rec.ID != absent.ID {
		t.Fatalf("expected the existing record to be claimed")
	}
	if rec.Status != models.AttendancePresent || rec.CheckIn == nil {
		t.Fatalf("unexpected claimed record %+v", rec)
	}
}

func TestService_CheckIn_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(ctx, employee)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyCheckedIn):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected exactly one check-in, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestService_TodayAndHistory(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t, Options{})
	ctx := context.Background()

	if _, err := svc.Today(ctx, employee); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound before check-in, got %v", err)
	}

	for day := 1; day <= 3; day++ {
		clk.set(time.Date(2026, 3, day, 9, 0, 0, 0, time.UTC))
		if _, err := svc.CheckIn(ctx, employee); err != nil {
			t.Fatalf("CheckIn returned error: %v", err)
		}
	}

	today, err := svc.Today(ctx, employee)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if today.WorkDate.Day() != 3 {
		t.Fatalf("expected today's record, got %s", today.WorkDate)
	}

	history, err := svc.History(ctx, employee, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}

	_, err = svc.History(ctx, employee, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestService_ListByDate_AdminOnly(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, employee); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	if _, err := svc.ListByDate(ctx, employee, time.Time{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	admin := &auth.Claims{AccountID: "OIAU20260001", Role: models.RoleAdmin}
	records, err := svc.ListByDate(ctx, admin, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListByDate returned error: %v", err)
	}
	if len(records) != 1 || records[0].AccountID != employee.AccountID {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestService_RequiresSession(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, Options{})
	if _, err := svc.CheckIn(context.Background(), nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
