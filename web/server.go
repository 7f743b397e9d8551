// ABOUTME: Admin HTTP server with JSON endpoints, OAuth callback, and Prometheus metrics
// ABOUTME: Serves a read-only dashboard at / and the admin API under /api/
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/metrics"
	"github.com/harperreed/resell/sync"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

// stateTTL bounds how long an issued OAuth state is accepted by the callback.
const stateTTL = 15 * time.Minute

type Server struct {
	mgr        *sync.Manager
	logger     *zap.Logger
	adminToken string
	templates  *template.Template
	mux        *http.ServeMux
	now        func() time.Time

	mu     gosync.Mutex
	states map[string]time.Time
}

// NewServer builds the admin server. An empty adminToken disables authentication,
// which is only sensible when listening on loopback.
func NewServer(mgr *sync.Manager, logger *zap.Logger, adminToken string) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return "$" + d.StringFixed(2)
		},
		"date": func(t time.Time) string {
			return t.Local().Format("2006-01-02")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		mgr:        mgr,
		logger:     logger,
		adminToken: adminToken,
		templates:  tmpl,
		mux:        http.NewServeMux(),
		now:        time.Now,
		states:     make(map[string]time.Time),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.handle("GET /{$}", s.requireAdmin(s.handleDashboard))
	s.handle("GET /oauth/callback", s.handleOAuthCallback)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	s.handle("GET /api/status", s.requireAdmin(s.handleStatus))
	s.handle("GET /api/auth-url", s.requireAdmin(s.handleAuthURL))
	s.handle("POST /api/manual-token", s.requireAdmin(s.handleManualToken))
	s.handle("POST /api/disconnect", s.requireAdmin(s.handleDisconnect))

	s.handle("POST /api/sync", s.requireAdmin(s.handleRunSync))
	s.handle("GET /api/sync-runs", s.requireAdmin(s.handleSyncRuns))

	s.handle("GET /api/purchases", s.requireAdmin(s.handleListPurchases))
	s.handle("GET /api/purchases/{id}", s.requireAdmin(s.handleGetPurchase))
	s.handle("PATCH /api/purchases/{id}", s.requireAdmin(s.handleUpdatePurchase))
	s.handle("GET /api/stats", s.requireAdmin(s.handleStats))

	s.handle("GET /api/contacts", s.requireAdmin(s.handleListContacts))
	s.handle("GET /api/contacts/{id}", s.requireAdmin(s.handleGetContact))
	s.handle("PATCH /api/contacts/{id}", s.requireAdmin(s.handleUpdateContact))
}

// Handler returns the server's root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handle registers h under pattern and counts every response by route.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.AdminRequests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			next(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sync.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sync.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sync.ErrMarketplaceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, sync.ErrCredentialMissing), errors.Is(err, sync.ErrCredentialExpired):
		return http.StatusConflict
	case errors.Is(err, sync.ErrRemoteFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("admin request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", sync.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", sync.ErrInvalidInput)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", sync.ErrInvalidInput, name)
	}
	return n, nil
}

// issueState returns a fresh OAuth state and forgets expired ones.
func (s *Server) issueState() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for st, issued := range s.states {
		if now.Sub(issued) > stateTTL {
			delete(s.states, st)
		}
	}

	state := uuid.NewString()
	s.states[state] = now
	return state
}

// consumeState reports whether state was issued recently and removes it.
func (s *Server) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return s.now().Sub(issued) <= stateTTL
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := s.mgr.ConnectionStatus(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	purchases, err := s.mgr.ListPurchases(ctx, db.PurchaseFilter{Limit: 25})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sellers, err := s.mgr.ListContacts(ctx, db.ContactFilter{Limit: 10})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	runs, err := s.mgr.ListSyncRuns(ctx, 5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title":     "Dashboard",
		"Status":    status,
		"Purchases": purchases,
		"Sellers":   sellers,
		"Runs":      runs,
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.Error("template render failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		http.Error(w, "Authorization was declined: "+errCode, http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "no authorization code received", http.StatusBadRequest)
		return
	}
	if !s.consumeState(q.Get("state")) {
		http.Error(w, "unknown or expired state", http.StatusBadRequest)
		return
	}

	cred, err := s.mgr.ExchangeCodeForTokens(r.Context(), code)
	if err != nil {
		s.logger.Error("oauth callback exchange failed", zap.Error(err))
		http.Error(w, "failed to link account: "+err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Authorization successful! Linked eBay account %s. You can close this window.\n", cred.VendorUsername)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.mgr.ConnectionStatus(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	state := s.issueState()
	url, err := s.mgr.AuthURL(state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "state": state})
}

type manualTokenRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleManualToken(w http.ResponseWriter, r *http.Request) {
	var req manualTokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	cred, err := s.mgr.StoreManualToken(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cred)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	n, err := s.mgr.Disconnect(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"disconnected": n})
}

type runSyncRequest struct {
	AccountID string `json:"account_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	var req runSyncRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	var accountID *uuid.UUID
	if req.AccountID != "" {
		id, err := uuid.Parse(req.AccountID)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: invalid account_id", sync.ErrInvalidInput))
			return
		}
		accountID = &id
	}
	from, err := sync.ParseDate(req.From)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := sync.ParseDate(req.To)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	summary, err := s.mgr.RunSync(r.Context(), accountID, sync.Window{From: from, To: to})
	if err != nil {
		var syncErr *sync.SyncError
		if errors.As(err, &syncErr) {
			writeJSON(w, statusFor(err), map[string]any{
				"error":           err.Error(),
				"run_id":          syncErr.RunID,
				"records_fetched": syncErr.Fetched,
				"records_created": syncErr.Created,
				"records_updated": syncErr.Updated,
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	runs, err := s.mgr.ListSyncRuns(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, err := sync.ParseDate(q.Get("from"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := sync.ParseDate(q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	list, err := s.mgr.ListPurchases(r.Context(), db.PurchaseFilter{
		Status: q.Get("status"),
		Seller: q.Get("seller"),
		Search: q.Get("q"),
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.mgr.GetPurchase(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type purchasePatchRequest struct {
	Notes           *string `json:"notes"`
	OrderStatus     *string `json:"order_status"`
	TrackingNumber  *string `json:"tracking_number"`
	ShippingCarrier *string `json:"shipping_carrier"`
}

func (s *Server) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req purchasePatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.mgr.UpdatePurchase(r.Context(), id, sync.PurchasePatch(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	since, err := sync.ParseDate(r.URL.Query().Get("since"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.mgr.PurchaseStats(r.Context(), since)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	mailingOnly, _ := strconv.ParseBool(q.Get("mailing_list"))

	list, err := s.mgr.ListContacts(r.Context(), db.ContactFilter{
		Relationship:    q.Get("relationship"),
		Search:          q.Get("q"),
		MailingListOnly: mailingOnly,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.mgr.GetContact(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type contactPatchRequest struct {
	DisplayName  *string `json:"display_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Notes        *string `json:"notes"`
	MailingList  *bool   `json:"mailing_list"`
	Relationship *string `json:"relationship"`
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req contactPatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.mgr.UpdateContact(r.Context(), id, sync.ContactPatch(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
