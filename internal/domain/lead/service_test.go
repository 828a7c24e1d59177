package lead

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salescrm/internal/database"
	"salescrm/internal/domain/user"
)

type fixture struct {
	db    *gorm.DB
	repo  *Repository
	svc   *Service
	users *user.GormRepository
	admin user.Actor
	alice user.Actor
	bob   user.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:lead_test_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &user.User{}, &Lead{}))

	users := user.NewRepository(db)
	owners := user.NewService(users, nil, 0)
	repo := NewRepository(db)
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	f := &fixture{
		db:    db,
		repo:  repo,
		svc:   NewService(repo, owners, nil, loc, zerolog.Nop()),
		users: users,
	}
	f.admin = f.addUser(t, "admin", true)
	f.alice = f.addUser(t, "alice", false)
	f.bob = f.addUser(t, "bob", false)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, admin bool) user.Actor {
	t.Helper()
	u := &user.User{Username: name, PasswordHash: "x", IsStaff: true, IsSuperuser: admin, IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.Actor()
}

func (f *fixture) create(t *testing.T, actor user.Actor, phone string, owner *int64) *Lead {
	t.Helper()
	l, err := f.svc.Create(context.Background(), actor, LeadInput{Name: "lead " + phone, Phone: phone, SalesRepID: owner})
	require.NoError(t, err)
	return l
}

func ptr[T any](v T) *T { return &v }

func rowOf(in LeadInput) func() (LeadInput, error) {
	return func() (LeadInput, error) { return in, nil }
}

func inputFrom(l *Lead) LeadInput {
	return LeadInput{
		Name:            l.Name,
		Phone:           l.Phone,
		Status:          l.Status,
		SalesRepID:      l.SalesRepID,
		NextContactTime: l.NextContactTime,
		Notes:           l.Notes,
	}
}

func TestContactCount_FollowUpRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l := f.create(t, f.alice, "13800000001", nil)
	assert.Equal(t, 0, l.ContactCount)
	require.NotNil(t, l.SalesRepID)
	assert.Equal(t, f.alice.ID, *l.SalesRepID)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	steps := []struct {
		next *time.Time
		want int
	}{
		{next: &t1, want: 1},
		{next: ptr(t1), want: 1},
		{next: &t2, want: 2},
		{next: nil, want: 2},
		{next: &t1, want: 3},
	}
	for i, step := range steps {
		in := inputFrom(l)
		in.NextContactTime = step.next
		updated, err := f.svc.Update(ctx, f.alice, l.ID, in)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.want, updated.ContactCount, "step %d", i)
		l = updated
	}
}

func TestContactCount_CreateNeverIncrements(t *testing.T) {
	f := newFixture(t)
	next := time.Now().Add(time.Hour)

	l, err := f.svc.Create(context.Background(), f.alice, LeadInput{Name: "n", Phone: "1", NextContactTime: &next})
	require.NoError(t, err)
	assert.Equal(t, 0, l.ContactCount)
	assert.False(t, l.LastContactAt.IsZero())
}

func TestContactCount_IgnoresClientCounter(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, f.alice, "2", nil)

	in := inputFrom(l)
	in.ContactCount = 99
	updated, err := f.svc.Update(context.Background(), f.alice, l.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.ContactCount)
}

func TestContactCount_ConcurrentUpdatesKeepEveryIncrement(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, f.alice, "3", nil)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := inputFrom(l)
			in.NextContactTime = ptr(base.Add(time.Duration(i+1) * time.Hour))
			_, err := f.svc.Update(context.Background(), f.alice, l.ID, in)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, got.ContactCount)
}

func TestUpdate_StampsLastContactAt(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, f.alice, "4", nil)

	stamp := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)
	f.repo.now = func() time.Time { return stamp }

	updated, err := f.svc.Update(context.Background(), f.alice, l.ID, inputFrom(l))
	require.NoError(t, err)
	assert.True(t, updated.LastContactAt.Equal(stamp))
}

func TestClaim_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	l := f.create(t, f.admin, "5", nil)
	require.True(t, l.InPool())

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, actor := range []user.Actor{f.alice, f.bob} {
		wg.Add(1)
		go func(i int, actor user.Actor) {
			defer wg.Done()
			_, results[i] = f.svc.Claim(context.Background(), actor, []int64{l.ID})
		}(i, actor)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrNotAvailable)
		}
	}
	assert.Equal(t, 1, wins)

	got, err := f.repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SalesRepID)
}

func TestClaim_PartialAndEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	free := f.create(t, f.admin, "6", nil)
	owned := f.create(t, f.bob, "7", nil)

	n, err := f.svc.Claim(ctx, f.alice, []int64{free.ID, owned.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := f.repo.GetByID(ctx, owned.ID)
	assert.Equal(t, f.bob.ID, *got.SalesRepID)

	_, err = f.svc.Claim(ctx, f.alice, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.create(t, f.alice, "8", nil)
	theirs := f.create(t, f.bob, "9", nil)
	pooled := f.create(t, f.admin, "10", nil)

	leads, total, err := f.svc.List(ctx, f.alice, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, leads[0].ID)

	_, total, err = f.svc.List(ctx, f.admin, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	for _, actor := range []user.Actor{f.alice, f.admin} {
		pool, total, err := f.svc.Pool(ctx, actor, ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, pooled.ID, pool[0].ID)
	}

	_, err = f.svc.Get(ctx, f.alice, theirs.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Get(ctx, f.alice, pooled.ID)
	assert.NoError(t, err)

	_, err = f.svc.Update(ctx, f.alice, theirs.ID, inputFrom(theirs))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Update(ctx, f.alice, pooled.ID, inputFrom(pooled))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Update(ctx, f.alice, 99999, LeadInput{Name: "x", Phone: "x", SalesRepID: ptr(f.bob.ID)})
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestOwnerRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, f.alice, "11", nil)

	in := inputFrom(l)
	in.SalesRepID = &f.bob.ID
	_, err := f.svc.Update(ctx, f.alice, l.ID, in)
	assert.ErrorIs(t, err, ErrOwnerNotAllowed)

	got, _ := f.repo.GetByID(ctx, l.ID)
	assert.Equal(t, f.alice.ID, *got.SalesRepID)

	in.SalesRepID = nil
	released, err := f.svc.Update(ctx, f.alice, l.ID, in)
	require.NoError(t, err)
	assert.True(t, released.InPool())

	_, err = f.svc.Assign(ctx, f.alice, l.ID, &f.alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Assign(ctx, f.admin, l.ID, ptr(int64(9999)))
	assert.ErrorIs(t, err, ErrInvalidOwner)

	assigned, err := f.svc.Assign(ctx, f.admin, l.ID, &f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", assigned.OwnerName())

	adminCreated := f.create(t, f.admin, "12", nil)
	assert.True(t, adminCreated.InPool())
}

func TestBulkOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.alice, "13", nil)
	b := f.create(t, f.alice, "14", nil)
	ids := []int64{a.ID, b.ID}

	_, err := f.svc.BulkEdit(ctx, f.alice, BulkEditRequest{IDs: ids, Status: StatusSigned})
	assert.ErrorIs(t, err, ErrForbidden)

	n, err := f.svc.BulkEdit(ctx, f.admin, BulkEditRequest{IDs: ids, Status: StatusSigned, SalesRepID: &f.bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, _ := f.repo.GetByID(ctx, a.ID)
	assert.Equal(t, StatusSigned, got.Status)
	assert.Equal(t, f.bob.ID, *got.SalesRepID)

	_, err = f.svc.BulkEdit(ctx, f.admin, BulkEditRequest{IDs: ids, SalesRepID: ptr(int64(0)), View: "pool"})
	require.NoError(t, err)
	got, _ = f.repo.GetByID(ctx, a.ID)
	assert.False(t, got.InPool())

	_, err = f.svc.BulkEdit(ctx, f.admin, BulkEditRequest{IDs: ids, SalesRepID: ptr(int64(0)), View: "mine"})
	require.NoError(t, err)
	got, _ = f.repo.GetByID(ctx, a.ID)
	assert.True(t, got.InPool())

	_, err = f.svc.BulkDelete(ctx, f.bob, ids)
	assert.ErrorIs(t, err, ErrForbidden)
	n, err = f.svc.BulkDelete(ctx, f.admin, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = f.repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestBatchAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.admin, "15", nil)

	rows := []BatchRow{
		{Name: "dup", Phone: "15"},
		{Name: "new", Phone: "16", Status: "待跟进", CreatedAt: "2025-01-02 09:30", Note: "vip"},
	}
	for i := 0; i < 6; i++ {
		rows = append(rows, BatchRow{Name: "", Phone: fmt.Sprintf("bad%d", i)})
	}

	res, err := f.svc.BatchAdd(ctx, f.alice, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 6, res.Failed)
	assert.Len(t, res.Errors, MaxReportedErrors)

	got, err := f.repo.GetByPhone(ctx, "16")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitFollowup, got.Status)
	assert.Equal(t, f.alice.ID, *got.SalesRepID)
	assert.Equal(t, "vip", got.Extra.Note())
	assert.Equal(t, time.Date(2025, 1, 2, 1, 30, 0, 0, time.UTC), got.CreatedAt.UTC())

	res, err = f.svc.BatchAdd(ctx, f.admin, []BatchRow{{Name: "pooled", Phone: "17"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	got, _ = f.repo.GetByPhone(ctx, "17")
	assert.True(t, got.InPool())
}

func TestBatchAdd_UnreadableCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.BatchAdd(ctx, f.alice, []BatchRow{{Name: "x", Phone: "555", CreatedAt: "yesterday"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.Failed)

	got, err := f.repo.GetByPhone(ctx, "555")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestGetOrCreateByPhone_ReassignsByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.create(t, f.bob, "18", nil)
	next := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l, created, err := f.svc.GetOrCreateByPhone(ctx, f.alice, "18", rowOf(LeadInput{Name: "other name", NextContactTime: &next}))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, l.ID)
	assert.Equal(t, existing.Name, l.Name)
	assert.Equal(t, f.alice.ID, *l.SalesRepID)
	assert.Equal(t, 0, l.ContactCount)

	l, created, err = f.svc.GetOrCreateByPhone(ctx, f.admin, "19", rowOf(LeadInput{Name: "fresh", ContactCount: 3}))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, l.InPool())
	assert.Equal(t, 3, l.ContactCount)

	l, _, err = f.svc.GetOrCreateByPhone(ctx, f.admin, " 18 ", func() (LeadInput, error) {
		return LeadInput{}, errors.New("built for existing phone")
	})
	require.NoError(t, err)
	assert.True(t, l.InPool())
}

func TestDeletingOwnerReleasesLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, f.bob, "20", nil)

	require.NoError(t, f.users.Delete(ctx, f.bob.ID))

	got, err := f.repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.InPool())
}

func TestListFiltersAndSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(48 * time.Hour)

	_, err := f.svc.Create(ctx, f.admin, LeadInput{Name: "张三", Phone: "21", CityAuto: "上海", NextContactTime: &later})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.admin, LeadInput{Name: "李四", Phone: "22", Province: "上海", NextContactTime: &soon, Status: StatusSigned})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.admin, LeadInput{Name: "王五", Phone: "23", CityAuto: "北京"})
	require.NoError(t, err)

	leads, total, err := f.svc.List(ctx, f.admin, ListQuery{City: "上海"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	leads, _, err = f.svc.List(ctx, f.admin, ListQuery{Search: "王"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "23", leads[0].Phone)

	leads, _, err = f.svc.List(ctx, f.admin, ListQuery{Sort: "next_contact_time"})
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, []string{"22", "21", "23"}, []string{leads[0].Phone, leads[1].Phone, leads[2].Phone})

	leads, _, err = f.svc.List(ctx, f.admin, ListQuery{Sort: "-next_contact_time"})
	require.NoError(t, err)
	assert.Equal(t, "23", leads[2].Phone)

	leads, _, err = f.svc.List(ctx, f.admin, ListQuery{Statuses: []Status{StatusSigned}})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "22", leads[0].Phone)

	leads, _, err = f.svc.List(ctx, f.admin, ListQuery{Sort: "phone; DROP TABLE customers"})
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}

func TestDashboard_GroupsByLocalDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC) // 23:00 in Shanghai
	f.svc.now = func() time.Time { return now }

	todayLocal := now.Add(30 * time.Minute) // 23:30 local, same day
	tomorrowLocal := now.Add(2 * time.Hour) // 01:00 local, next day
	past := now.Add(-time.Hour)

	_, err := f.svc.Create(ctx, f.alice, LeadInput{Name: "a", Phone: "31", NextContactTime: &todayLocal})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.alice, LeadInput{Name: "b", Phone: "32", NextContactTime: &tomorrowLocal})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.alice, LeadInput{Name: "c", Phone: "33", NextContactTime: &past})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.bob, LeadInput{Name: "d", Phone: "34", NextContactTime: &todayLocal})
	require.NoError(t, err)

	days, err := f.svc.Dashboard(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-04-10", days[0].Date)
	assert.True(t, days[0].IsToday)
	assert.Len(t, days[0].Tasks, 1)
	assert.Equal(t, "2026-04-10 23:30", days[0].Tasks[0].NextContactTime)
	assert.Equal(t, "2026-04-11", days[1].Date)
	assert.False(t, days[1].IsToday)

	days, err = f.svc.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, days[0].Tasks, 2)
}
