// Package rest is the HTTP transport of the member service: routing,
// authorization, the response envelope and request observability.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type UserService interface {
	TokenResolver
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	FetchUser(ctx context.Context, id int64) (*models.User, error)
	Search(ctx context.Context, term string) ([]*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Unpaid(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, u *models.User, password string) (*models.User, error)
	Update(ctx context.Context, u *models.User, password string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type PaymentService interface {
	Now() time.Time
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, id int64, p *models.Payment) (*models.Payment, error)
	Fetch(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context) ([]*models.Payment, error)
	ListForPayer(ctx context.Context, payerID int64) ([]*models.Payment, error)
	Confirm(ctx context.Context, id, confirmerID int64) (*models.Payment, error)
}

type PrivacyPolicyService interface {
	Fetch(ctx context.Context, name string) (*models.PrivacyPolicy, error)
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	CookieSecure    bool
	ShutdownTimeout time.Duration
	DB              Pinger
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	users    UserService
	payments PaymentService
	policies PrivacyPolicyService
	authz    *Authorizer
	metrics  *Metrics
	opts     Options
	handler  http.Handler
}

func NewHTTPServer(a string, l logging.Logger, us UserService, ps PaymentService, pps PrivacyPolicyService, opts Options) *HTTPServer {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &HTTPServer{
		address:  a,
		logger:   l.With("module", "http_server"),
		users:    us,
		payments: ps,
		policies: pps,
		authz:    NewAuthorizer(us, l),
		metrics:  NewMetrics(prometheus.NewRegistry()),
		opts:     opts,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler { return s.handler }

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog, s.recoverer)
	r.NotFoundHandler = requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	}))
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/profile", s.authz.Authorize(false, s.profile)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/authenticate", s.authenticate).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	api.Handle("/auth/session", s.authz.LoadToken(s.session)).Methods(http.MethodGet)

	api.Handle("/users", s.authz.Authorize(true, s.listUsers)).Methods(http.MethodGet)
	api.HandleFunc("/users", s.createUser).Methods(http.MethodPost)
	api.Handle("/users/search", s.authz.Authorize(true, s.searchUsers)).Methods(http.MethodGet)
	api.Handle("/users/unpaid", s.authz.Authorize(true, s.unpaidUsers)).Methods(http.MethodGet)
	api.Handle("/users/me", s.authz.Authorize(true, s.me)).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}", s.authz.Authorize(true, s.getUser)).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}", s.authz.Authorize(true, s.updateUser)).Methods(http.MethodPatch)
	api.Handle("/users/{id:[0-9]+}", s.authz.Authorize(true, s.deleteUser)).Methods(http.MethodDelete)

	api.Handle("/payments", s.authz.Authorize(true, s.listPayments)).Methods(http.MethodGet)
	api.Handle("/payments", s.authz.Authorize(true, s.createPayment)).Methods(http.MethodPost)
	api.Handle("/payments/me", s.authz.Authorize(true, s.myPayments)).Methods(http.MethodGet)
	api.Handle("/payments/{id:[0-9]+}", s.authz.Authorize(true, s.getPayment)).Methods(http.MethodGet)
	api.Handle("/payments/{id:[0-9]+}", s.authz.Authorize(true, s.modifyPayment)).Methods(http.MethodPatch)
	api.Handle("/payments/{id:[0-9]+}/confirm", s.authz.Authorize(true, s.confirmPayment)).Methods(http.MethodPost)

	api.HandleFunc("/privacy-policy/{policy}", s.getPrivacyPolicy).Methods(http.MethodGet)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
