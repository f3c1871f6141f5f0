package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"portal/internal/models"
	"portal/internal/repository"
)

type memTokenStore struct {
	mu          sync.Mutex
	rows        map[string]models.PasswordResetToken
	markUsedErr error
	findErr     error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: map[string]models.PasswordResetToken{}}
}

func (m *memTokenStore) Put(ctx context.Context, token *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[token.TokenHash] = *token
	return nil
}

func (m *memTokenStore) Replace(ctx context.Context, token *models.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, r := range m.rows {
		if r.AccountKey == token.AccountKey {
			delete(m.rows, h)
		}
	}
	m.rows[token.TokenHash] = *token
	return nil
}

func (m *memTokenStore) FindByToken(ctx context.Context, rawToken string) (*models.PasswordResetToken, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[repository.HashResetToken(rawToken)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memTokenStore) DeleteAllForAccount(ctx context.Context, accountKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, r := range m.rows {
		if r.AccountKey == accountKey {
			delete(m.rows, h)
		}
	}
	return nil
}

func (m *memTokenStore) MarkUsed(ctx context.Context, rawToken string, usedAt time.Time) error {
	if m.markUsedErr != nil {
		return m.markUsedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h := repository.HashResetToken(rawToken)
	r, ok := m.rows[h]
	if !ok || r.Used {
		return nil
	}
	r.Used = true
	r.UsedAt = &usedAt
	m.rows[h] = r
	return nil
}

func (m *memTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, r := range m.rows {
		if !now.Before(r.ExpiresAt) {
			delete(m.rows, h)
			n++
		}
	}
	return n, nil
}

func (m *memTokenStore) liveFor(accountKey string, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.AccountKey == accountKey && r.Usable(now) {
			n++
		}
	}
	return n
}

func (m *memTokenStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memAccounts struct {
	mu        sync.Mutex
	users     map[string]*models.User
	setErr    error
	setCalled int
}

func (m *memAccounts) FindByExternalID(ctx context.Context, studentID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[studentID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memAccounts) FindByAccountKey(ctx context.Context, accountKey string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.LoginID, accountKey) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memAccounts) SetCredentialHash(ctx context.Context, studentID string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setErr != nil {
		return m.setErr
	}
	u, ok := m.users[studentID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	delay time.Duration
}

func (r *recordingMailer) Send(ctx context.Context, to string, subject string, body string) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type resetFixture struct {
	svc      *PasswordResetService
	store    *memTokenStore
	accounts *memAccounts
	mailer   *recordingMailer
	now      time.Time
}

func newResetFixture(t *testing.T, cfg ResetConfig) *resetFixture {
	t.Helper()
	f := &resetFixture{
		store: newMemTokenStore(),
		accounts: &memAccounts{users: map[string]*models.User{
			"111-118-001": {StudentID: "111-118-001", LoginID: "Alice@Example.com", IsActive: true},
		}},
		mailer: &recordingMailer{},
		now:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	f.svc = NewPasswordResetService(f.accounts, f.store, f.mailer, cfg, nil)
	f.svc.SetClock(func() time.Time { return f.now })
	t.Cleanup(f.svc.Wait)
	return f
}

func TestBeginResetScenario(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token in result")
	}
	if res.ExpiresIn != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", res.ExpiresIn)
	}

	rec, _ := f.store.FindByToken(ctx, res.Token)
	if rec == nil {
		t.Fatalf("token not stored")
	}
	if rec.Used {
		t.Fatalf("new token must be unused")
	}
	if rec.AccountKey != "alice@example.com" {
		t.Fatalf("expected normalized key, got %q", rec.AccountKey)
	}
	if !rec.ExpiresAt.Equal(f.now.Add(time.Hour)) {
		t.Fatalf("expected expiry now+1h, got %s", rec.ExpiresAt)
	}

	f.svc.Wait()
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(f.mailer.sent))
	}
	m := f.mailer.sent[0]
	if m.to != "Alice@Example.com" {
		t.Fatalf("unexpected recipient %q", m.to)
	}
	if !strings.Contains(m.body, "http://localhost:3000/reset-password?token="+res.Token) {
		t.Fatalf("mail body does not carry reset link: %s", m.body)
	}

	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); err != nil {
		t.Fatalf("CompleteReset: %v", err)
	}
	hash := f.accounts.users["111-118-001"].PasswordHash
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewPass123")); err != nil {
		t.Fatalf("stored hash does not match new password: %v", err)
	}
	rec, _ = f.store.FindByToken(ctx, res.Token)
	if rec == nil || !rec.Used {
		t.Fatalf("expected token marked used, got %+v", rec)
	}

	if err := f.svc.CompleteReset(ctx, res.Token, "Another123"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken on reuse, got %v", err)
	}
}

func TestCompleteResetUnknownToken(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	err := f.svc.CompleteReset(context.Background(), "never-issued", "NewPass123")
	if !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if f.accounts.setCalled != 0 {
		t.Fatalf("password must not be touched")
	}
}

func TestCompleteResetExpiredToken(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}

	f.now = f.now.Add(time.Hour + time.Second)
	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestCompleteResetAtExactExpiryFails(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true, TTL: 15 * time.Minute})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}

	f.now = f.now.Add(15 * time.Minute)
	if _, err := f.svc.VerifyToken(ctx, res.Token); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected token unusable at expires_at, got %v", err)
	}
}

func TestReissueInvalidatesPreviousToken(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	first, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	second, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("tokens must differ")
	}
	if n := f.store.liveFor("alice@example.com", f.now); n != 1 {
		t.Fatalf("expected 1 live token, got %d", n)
	}

	if err := f.svc.CompleteReset(ctx, first.Token, "NewPass123"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected superseded token rejected, got %v", err)
	}
	if err := f.svc.CompleteReset(ctx, second.Token, "NewPass123"); err != nil {
		t.Fatalf("CompleteReset with latest token: %v", err)
	}
}

func TestVerifyIssuedTokenRoundTrip(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	ctx := context.Background()

	token, err := f.svc.issuer.Issue(ctx, "Bob@Example.COM")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	key, err := f.svc.VerifyToken(ctx, token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if key != "bob@example.com" {
		t.Fatalf("expected bob@example.com, got %q", key)
	}

	// Verification is read-only.
	if _, err := f.svc.VerifyToken(ctx, token); err != nil {
		t.Fatalf("second VerifyToken: %v", err)
	}
}

func TestBeginResetUnknownAccountIsIndistinguishable(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	if res == nil || res.Token != "" {
		t.Fatalf("expected empty acknowledgement, got %+v", res)
	}
	if f.store.count() != 0 {
		t.Fatalf("no token row may be created")
	}
	f.svc.Wait()
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail may be sent")
	}
}

func TestBeginResetRevealsUnknownAccountWhenConfigured(t *testing.T) {
	f := newResetFixture(t, ResetConfig{RevealUnknownAccount: true})
	_, err := f.svc.BeginReset(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConcurrentBeginLeavesOneLiveToken(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.BeginReset(ctx, "111-118-001"); err != nil {
				t.Errorf("BeginReset: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.store.liveFor("alice@example.com", f.now); n != 1 {
		t.Fatalf("expected exactly 1 live token, got %d", n)
	}
}

func TestBeginResetDoesNotWaitForMailer(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	f.mailer.delay = 300 * time.Millisecond
	ctx := context.Background()

	start := time.Now()
	if _, err := f.svc.BeginReset(ctx, "111-118-001"); err != nil {
		t.Fatalf("BeginReset known: %v", err)
	}
	known := time.Since(start)

	start = time.Now()
	if _, err := f.svc.BeginReset(ctx, "does-not-exist"); err != nil {
		t.Fatalf("BeginReset unknown: %v", err)
	}
	unknown := time.Since(start)

	if known >= f.mailer.delay/2 {
		t.Fatalf("known account waited for the mailer: known=%s unknown=%s", known, unknown)
	}

	f.svc.Wait()
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].to != "Alice@Example.com" {
		t.Fatalf("expected the reset mail to be delivered after the ack, got %+v", f.mailer.sent)
	}
}

func TestBeginResetMailOutlivesRequestContext(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	f.mailer.delay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := f.svc.BeginReset(ctx, "111-118-001"); err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	cancel()

	f.svc.Wait()
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mail must be sent after the request is gone, got %d", len(f.mailer.sent))
	}
}

func TestBeginResetMailRespectsEmailTimeout(t *testing.T) {
	f := newResetFixture(t, ResetConfig{EmailTimeout: 10 * time.Millisecond})
	f.mailer.delay = time.Second

	start := time.Now()
	if _, err := f.svc.BeginReset(context.Background(), "111-118-001"); err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	f.svc.Wait()
	if elapsed := time.Since(start); elapsed >= f.mailer.delay {
		t.Fatalf("delivery was not bounded by the email timeout: %s", elapsed)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("timed out mail must not be recorded")
	}
}

func TestPendingDeliveriesRegisterOnSharedWaitGroup(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	f.mailer.delay = 20 * time.Millisecond
	var wg sync.WaitGroup
	f.svc.SetPending(&wg)

	if _, err := f.svc.BeginReset(context.Background(), "111-118-001"); err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	wg.Wait()
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected delivery tracked by the shared wait group")
	}
}

func TestBeginResetAcknowledgesWhenMailFails(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	f.mailer.err = errors.New("smtp down")

	res, err := f.svc.BeginReset(context.Background(), "111-118-001")
	if err != nil {
		t.Fatalf("expected acknowledgement despite mail failure, got %v", err)
	}
	if n := f.store.liveFor("alice@example.com", f.now); n != 1 {
		t.Fatalf("issuance must not be rolled back, live=%d", n)
	}
	if err := f.svc.CompleteReset(context.Background(), res.Token, "NewPass123"); err != nil {
		t.Fatalf("token should still be usable: %v", err)
	}
}

func TestCompleteResetUpdateFailureKeepsTokenUsable(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}

	f.accounts.setErr = errors.New("connection reset")
	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); !errors.Is(err, ErrUpdateFailed) {
		t.Fatalf("expected ErrUpdateFailed, got %v", err)
	}
	rec, _ := f.store.FindByToken(ctx, res.Token)
	if rec == nil || rec.Used {
		t.Fatalf("token must stay unused after failed update")
	}

	f.accounts.setErr = nil
	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); err != nil {
		t.Fatalf("retry CompleteReset: %v", err)
	}
}

func TestCompleteResetAccountDeletedConcurrently(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	delete(f.accounts.users, "111-118-001")

	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); !errors.Is(err, ErrUpdateFailed) {
		t.Fatalf("expected ErrUpdateFailed, got %v", err)
	}
}

func TestCompleteResetDropsTokensWhenMarkUsedFails(t *testing.T) {
	f := newResetFixture(t, ResetConfig{ReturnToken: true})
	ctx := context.Background()

	res, err := f.svc.BeginReset(ctx, "111-118-001")
	if err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	f.store.markUsedErr = errors.New("write timeout")

	if err := f.svc.CompleteReset(ctx, res.Token, "NewPass123"); err != nil {
		t.Fatalf("CompleteReset: %v", err)
	}
	if _, err := f.svc.VerifyToken(ctx, res.Token); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("token must not be replayable, got %v", err)
	}
}

func TestStoreFailuresMapToInternal(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	f.store.findErr = errors.New("pq: connection refused")

	err := f.svc.CompleteReset(context.Background(), "whatever", "NewPass123")
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestBeginResetPurgesExpiredRows(t *testing.T) {
	f := newResetFixture(t, ResetConfig{})
	_ = f.store.Put(context.Background(), &models.PasswordResetToken{
		TokenHash:  "stale",
		AccountKey: "someone@example.com",
		ExpiresAt:  f.now.Add(-time.Minute),
	})

	if _, err := f.svc.BeginReset(context.Background(), "does-not-exist"); err != nil {
		t.Fatalf("BeginReset: %v", err)
	}
	if f.store.count() != 0 {
		t.Fatalf("expected stale row purged")
	}
}
