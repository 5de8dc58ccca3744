package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	paymentsrepo "github.com/dmitrijs2005/memberservice/internal/server/repositories/payments"
	policiesrepo "github.com/dmitrijs2005/memberservice/internal/server/repositories/privacypolicies"
	usersrepo "github.com/dmitrijs2005/memberservice/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64

	findErr           error
	updatePasswordErr error
	passwordUpdates   int
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{users: map[int64]*models.User{}, nextID: 100}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsersRepo) findBy(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if match(u) {
			return f.copyOf(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsersRepo) sorted(match func(*models.User) bool) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []*models.User{}
	for _, u := range f.users {
		if match(u) {
			out = append(out, f.copyOf(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsersRepo) FindAll(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	return f.sorted(func(u *models.User) bool {
		if u.Deleted != filter.Revoked {
			return false
		}
		if filter.MembersOnly && !u.IsMember() {
			return false
		}
		if filter.NonMembersOnly && u.IsMember() {
			return false
		}
		return true
	})
}

func (f *fakeUsersRepo) Search(_ context.Context, term string) ([]*models.User, error) {
	term = strings.ToLower(term)
	return f.sorted(func(u *models.User) bool {
		return !u.Deleted && (strings.Contains(strings.ToLower(u.Username), term) ||
			strings.Contains(strings.ToLower(u.Name), term))
	})
}

func (f *fakeUsersRepo) FindAllUnpaid(context.Context) ([]*models.User, error) {
	return f.sorted(func(u *models.User) bool { return u.Membership == "unpaid" })
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.users[u.ID] = f.copyOf(u)
	return u, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.users[u.ID]
	if !ok {
		return common.ErrorNoRowsChanged
	}
	c := f.copyOf(u)
	c.Salt, c.HashedPassword, c.PasswordScheme = old.Salt, old.HashedPassword, old.PasswordScheme
	f.users[u.ID] = c
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, salt, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updatePasswordErr != nil {
		return f.updatePasswordErr
	}
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNoRowsChanged
	}
	u.Salt, u.HashedPassword, u.PasswordScheme = salt, hash, models.SchemeFromSalt(salt)
	f.passwordUpdates++
	return nil
}

func (f *fakeUsersRepo) SoftDelete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Deleted {
		return common.ErrorNoRowsChanged
	}
	u.Deleted = true
	return nil
}

type fakePaymentsRepo struct {
	payments map[int64]*models.Payment
	nextID   int64
	err      error
}

func newFakePaymentsRepo(ps ...*models.Payment) *fakePaymentsRepo {
	f := &fakePaymentsRepo{payments: map[int64]*models.Payment{}, nextID: 10}
	for _, p := range ps {
		f.payments[p.ID] = p
	}
	return f
}

func (f *fakePaymentsRepo) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	c := *p
	c.ID = f.nextID
	f.payments[c.ID] = &c
	p.ID = c.ID
	return p, nil
}

func (f *fakePaymentsRepo) FindByID(_ context.Context, id int64) (*models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakePaymentsRepo) FindAll(context.Context) ([]*models.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Payment{}
	for _, p := range f.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePaymentsRepo) FindByPayer(ctx context.Context, payerID int64) ([]*models.Payment, error) {
	all, err := f.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []*models.Payment{}
	for _, p := range all {
		if p.PayerID == payerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentsRepo) Update(_ context.Context, id int64, p *models.Payment) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.payments[id]; !ok {
		return common.ErrorNoRowsChanged
	}
	c := *p
	c.ID = id
	f.payments[id] = &c
	return nil
}

func (f *fakePaymentsRepo) Confirm(_ context.Context, id, confirmerID int64, at time.Time) error {
	p, ok := f.payments[id]
	if !ok || p.Paid != nil {
		return common.ErrorNoRowsChanged
	}
	p.Paid = &at
	p.ConfirmerID = &confirmerID
	return nil
}

type fakePoliciesRepo struct {
	policies map[string]*models.PrivacyPolicy
	err      error
}

func (f *fakePoliciesRepo) FindByName(_ context.Context, name string) (*models.PrivacyPolicy, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.policies[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePaymentsRepo
	r *fakePoliciesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository              { return m.u }
func (m *fakeRepoManager) Payments(dbx.DBTX) paymentsrepo.Repository        { return m.p }
func (m *fakeRepoManager) PrivacyPolicies(dbx.DBTX) policiesrepo.Repository { return m.r }

// recordingLogger keeps Warn messages so tests can assert on them.
type recordingLogger struct {
	logging.Nop
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *recordingLogger) With(...any) logging.Logger { return l }
