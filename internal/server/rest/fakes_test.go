package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/auth"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeUsers struct {
	mu         sync.Mutex
	codec      *auth.TokenCodec
	users      map[int64]*models.User
	passwords  map[string]string
	resolveErr error
	nextID     int64
}

func (f *fakeUsers) live(id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok || u.Deleted {
		return nil, common.NewNotFoundError("Not found")
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) ResolveToken(_ context.Context, token string) (*auth.ServiceToken, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, nil, f.resolveErr
	}
	st, err := f.codec.Decode(token)
	if err != nil {
		return nil, nil, common.NewUnauthenticatedError("Invalid token")
	}
	u, err := f.live(st.UserID)
	if err != nil {
		return nil, nil, err
	}
	return st, u, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (string, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && !u.Deleted && f.passwords[username] == password {
			token, _, err := f.codec.Issue(u.ID)
			c := *u
			return token, &c, err
		}
	}
	return "", nil, common.NewUnauthenticatedError("Invalid username or password")
}

func (f *fakeUsers) FetchUser(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live(id)
}

func (f *fakeUsers) all() []*models.User {
	out := []*models.User{}
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok && !u.Deleted {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeUsers) Search(_ context.Context, term string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for _, u := range f.all() {
		if strings.Contains(u.Username, term) {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, common.NewNotFoundError("No results returned")
	}
	return out, nil
}

func (f *fakeUsers) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for _, u := range f.all() {
		if filter.MembersOnly && !u.IsMember() {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Unpaid(context.Context) ([]*models.User, error) {
	return []*models.User{}, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	f.passwords[u.Username] = password
	return u, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return nil, common.NewNotFoundError("Not found")
	}
	f.users[u.ID] = u
	if password != "" {
		f.passwords[u.Username] = password
	}
	return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Deleted {
		return common.NewNotFoundError("Not found")
	}
	u.Deleted = true
	return nil
}

type fakePayments struct {
	mu       sync.Mutex
	payments map[int64]*models.Payment
	nextID   int64
	now      time.Time
}

func (f *fakePayments) Now() time.Time { return f.now }

func (f *fakePayments) Create(_ context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakePayments) Update(_ context.Context, id int64, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[id]; !ok {
		return nil, common.NewValidationError("Failed to modify payment")
	}
	p.ID = id
	f.payments[id] = p
	return p, nil
}

func (f *fakePayments) Fetch(_ context.Context, id int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, common.NewNotFoundError("Payment not found")
	}
	return p, nil
}

func (f *fakePayments) List(context.Context) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Payment{}
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.payments[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) ListForPayer(ctx context.Context, payerID int64) ([]*models.Payment, error) {
	all, _ := f.List(ctx)
	out := []*models.Payment{}
	for _, p := range all {
		if p.PayerID == payerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePayments) Confirm(_ context.Context, id, confirmerID int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, common.NewNotFoundError("Payment not found")
	}
	if p.IsPaid() {
		return nil, common.NewValidationError("Payment already confirmed")
	}
	at := f.now
	p.Paid = &at
	p.ConfirmerID = &confirmerID
	return p, nil
}

type fakePolicies struct {
	policies map[string]*models.PrivacyPolicy
	panicOn  string
}

func (f *fakePolicies) Fetch(_ context.Context, name string) (*models.PrivacyPolicy, error) {
	if name == f.panicOn {
		panic("policy store exploded")
	}
	if name == "broken" {
		return nil, common.NewInternalError("Server error", errors.New("relation privacy_policies does not exist"))
	}
	p, ok := f.policies[name]
	if !ok {
		return nil, common.NewNotFoundError("Privacy policy not found")
	}
	return p, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// --- fixture ---

const (
	userID    int64 = 1
	officerID int64 = 2
	adminID   int64 = 3
	deletedID int64 = 4
)

var testNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv      *HTTPServer
	users    *fakeUsers
	payments *fakePayments
	policies *fakePolicies
	codec    *auth.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec := auth.NewTokenCodec([]byte("test-secret"))
	users := &fakeUsers{
		codec: codec,
		users: map[int64]*models.User{
			userID:    {ID: userID, Username: "user", Name: "Ulla User", Email: "user@example.com", Membership: models.MembershipMember, Role: models.RoleUser},
			officerID: {ID: officerID, Username: "officer", Name: "Olli Officer", Email: "officer@example.com", Role: models.RoleMemberOfficer},
			adminID:   {ID: adminID, Username: "admin", Name: "Aino Admin", Email: "admin@example.com", Role: models.RoleAdmin},
			deletedID: {ID: deletedID, Username: "gone", Name: "Gone", Role: models.RoleAdmin, Deleted: true},
		},
		passwords: map[string]string{"user": "pw", "admin": "adminpw"},
		nextID:    4,
	}
	payments := &fakePayments{payments: map[int64]*models.Payment{}, now: testNow}
	policies := &fakePolicies{policies: map[string]*models.PrivacyPolicy{
		"members": {ID: 1, Name: "members", Text: "We store your name."},
	}}

	srv := NewHTTPServer(":0", logging.Nop{}, users, payments, policies, Options{})
	return &fixture{srv: srv, users: users, payments: payments, policies: policies, codec: codec}
}

func (f *fixture) token(t *testing.T, id int64) string {
	t.Helper()
	tok, _, err := f.codec.Issue(id)
	require.NoError(t, err)
	return tok
}

type requestOpt func(*http.Request)

func withBearer(token string) requestOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(token string) requestOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: common.TokenCookieName, Value: token}) }
}

func (f *fixture) do(t *testing.T, method, path, body string, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message *string         `json:"message"`
	Success bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func message(env envelope) string {
	if env.Message == nil {
		return ""
	}
	return *env.Message
}
