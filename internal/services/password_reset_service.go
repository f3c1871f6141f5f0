package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"portal/internal/interfaces"
	"portal/internal/repository"
)

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUpdateFailed          = errors.New("failed to reset password")
	ErrNotificationFailed    = errors.New("failed to send password reset email")
	ErrInternal              = errors.New("an error occurred processing your request")
)

const defaultResetEmailTimeout = 10 * time.Second

type ResetConfig struct {
	TTL          time.Duration
	FrontendURL  string
	EmailTimeout time.Duration
	BcryptCost   int

	// RevealUnknownAccount makes BeginReset return ErrAccountNotFound for an
	// unknown selector instead of the generic acknowledgement.
	RevealUnknownAccount bool
	// ReturnToken echoes the raw token in BeginResult. Development only.
	ReturnToken bool
}

// BeginResult is the acknowledgement of BeginReset. Token and ExpiresIn are
// only filled when ReturnToken is enabled and a token was actually issued.
type BeginResult struct {
	Token     string
	ExpiresIn time.Duration
}

// PasswordResetService sequences the reset flow: issue, notify, verify,
// update, invalidate. All state lives in the token store.
type PasswordResetService struct {
	accounts interfaces.AccountDirectory
	store    interfaces.ResetTokenStore
	mailer   EmailSender
	issuer   *TokenIssuer
	verifier *TokenVerifier
	updater  *PasswordUpdater
	cfg      ResetConfig
	log      *zap.Logger
	now      func() time.Time
	pending  *sync.WaitGroup
}

func NewPasswordResetService(accounts interfaces.AccountDirectory, store interfaces.ResetTokenStore, mailer EmailSender, cfg ResetConfig, logger *zap.Logger) *PasswordResetService {
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = defaultResetEmailTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	issuer := NewTokenIssuer(store, cfg.TTL)
	cfg.TTL = issuer.TTL()

	return &PasswordResetService{
		accounts: accounts,
		store:    store,
		mailer:   mailer,
		issuer:   issuer,
		verifier: NewTokenVerifier(store),
		updater:  NewPasswordUpdater(accounts, cfg.BcryptCost),
		cfg:      cfg,
		log:      logger.Named("password_reset"),
		now:      time.Now,
		pending:  &sync.WaitGroup{},
	}
}

// SetPending makes reset email deliveries register on wg, so a caller can
// drain them on shutdown.
func (s *PasswordResetService) SetPending(wg *sync.WaitGroup) {
	if wg != nil {
		s.pending = wg
	}
}

// Wait blocks until every reset email started so far has been handed to the
// mailer or given up.
func (s *PasswordResetService) Wait() {
	s.pending.Wait()
}

// SetClock replaces the time source of the service and its components.
func (s *PasswordResetService) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.now = now
	s.issuer.now = now
	s.verifier.now = now
}

func (s *PasswordResetService) Updater() *PasswordUpdater {
	return s.updater
}

// BeginReset issues a token for the account selected by studentID and starts
// mailing the reset link in the background. It returns once the token is
// stored, so known and unknown accounts answer in the same time class.
// Unknown accounts get the same acknowledgement unless RevealUnknownAccount is
// set. Mail failures are logged, never returned.
func (s *PasswordResetService) BeginReset(ctx context.Context, studentID string) (*BeginResult, error) {
	studentID = strings.TrimSpace(studentID)

	if n, err := s.store.DeleteExpired(ctx, s.now().UTC()); err != nil {
		s.log.Warn("purge expired reset tokens failed", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("purged expired reset tokens", zap.Int64("count", n))
	}

	acct, err := s.accounts.FindByExternalID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.Error("lookup account for reset failed", zap.String("student_id", studentID), zap.Error(err))
			return nil, ErrInternal
		}
		// Same token generation cost as the issuing path; the value is dropped.
		_, _ = generateResetToken()
		s.log.Info("password reset requested for unknown account", zap.String("student_id", studentID))
		if s.cfg.RevealUnknownAccount {
			return nil, ErrAccountNotFound
		}
		return &BeginResult{}, nil
	}

	token, err := s.issuer.Issue(ctx, acct.LoginID)
	if err != nil {
		s.log.Error("issue reset token failed", zap.String("student_id", acct.StudentID), zap.Error(err))
		return nil, ErrInternal
	}

	s.pending.Add(1)
	go func(studentID, to string) {
		defer s.pending.Done()
		s.deliver(context.WithoutCancel(ctx), studentID, to, token)
	}(acct.StudentID, acct.LoginID)

	res := &BeginResult{}
	if s.cfg.ReturnToken {
		res.Token = token
		res.ExpiresIn = s.cfg.TTL
	}
	return res, nil
}

func (s *PasswordResetService) deliver(ctx context.Context, studentID, to, token string) {
	if err := s.notify(ctx, to, token); err != nil {
		s.log.Error("reset email not delivered",
			zap.String("student_id", studentID),
			zap.Error(fmt.Errorf("%w: %v", ErrNotificationFailed, err)),
		)
		return
	}
	s.log.Info("reset email sent", zap.String("student_id", studentID))
}

func (s *PasswordResetService) notify(ctx context.Context, to, token string) error {
	link, err := buildResetLink(s.cfg.FrontendURL, token)
	if err != nil {
		return fmt.Errorf("build reset link: %w", err)
	}
	body, err := renderResetEmail("", link, s.cfg.TTL)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmailTimeout)
	defer cancel()
	return s.mailer.Send(ctx, to, resetEmailSubject, body)
}

// VerifyToken reports the account key a token may reset, without consuming it.
func (s *PasswordResetService) VerifyToken(ctx context.Context, token string) (string, error) {
	key, ok, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.log.Error("verify reset token failed", zap.Error(err))
		return "", ErrInternal
	}
	if !ok {
		return "", ErrInvalidOrExpiredToken
	}
	return key, nil
}

// CompleteReset sets a new password using token and then consumes the token.
// A failed update leaves the token usable so the caller can retry.
//
// Two concurrent calls with the same token can both pass verification and
// both write a password; the later write wins and the second MarkUsed is a
// no-op.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token string, newPassword string) error {
	key, err := s.VerifyToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.updater.UpdatePassword(ctx, key, newPassword); err != nil {
		s.log.Error("password update failed", zap.String("account_key", key), zap.Error(err))
		return ErrUpdateFailed
	}

	if err := s.store.MarkUsed(ctx, token, s.now().UTC()); err != nil {
		// The password is already committed; make sure the token cannot be replayed.
		s.log.Error("mark reset token used failed", zap.String("account_key", key), zap.Error(err))
		if err := s.store.DeleteAllForAccount(ctx, key); err != nil {
			s.log.Error("drop reset tokens failed", zap.String("account_key", key), zap.Error(err))
		}
	}

	s.log.Info("password reset completed", zap.String("account_key", key))
	return nil
}
