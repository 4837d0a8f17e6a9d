// Package services contains server-side business logic. UserService owns
// registration and the session lifecycle: login, refresh-token rotation with
// reuse detection, logout and access-token authentication.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TokenPair is what a successful login or refresh hands to the client.
// RefreshToken is the raw value; it is not retained anywhere on the server.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type UserService struct {
	tx                           dbx.Transactor
	db                           dbx.DBTX
	repomanager                  repomanager.RepositoryManager
	signer                       *auth.Signer
	refreshTokenValidityDuration time.Duration
	clock                        Clock
	observer                     SessionObserver
	logger                       logging.Logger
}

type UserServiceOption func(*UserService)

func WithClock(c Clock) UserServiceOption {
	return func(s *UserService) { s.clock = c }
}

func WithObserver(o SessionObserver) UserServiceOption {
	return func(s *UserService) { s.observer = o }
}

// NewUserService builds a UserService. tx runs the units of work that must be
// atomic, db serves plain reads.
func NewUserService(tx dbx.Transactor, db dbx.DBTX, m repomanager.RepositoryManager, cfg *config.Config,
	l logging.Logger, opts ...UserServiceOption) *UserService {
	s := &UserService{
		tx:                           tx,
		db:                           db,
		repomanager:                  m,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		clock:                        SystemClock{},
		observer:                     nopObserver{},
		logger:                       l.With("module", "user_service"),
	}
	for _, o := range opts {
		o(s)
	}
	s.signer = auth.NewSigner([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, auth.WithTimeFunc(s.clock.Now))
	return s
}

// Register creates a user. A taken email or username yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password are indistinguishable: both give common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string, p models.Provenance) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.observer.LoginAttempt(OutcomeInvalidCredentials)
			return nil, common.ErrInvalidCredentials
		}
		s.observer.LoginAttempt(OutcomeError)
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.observer.LoginAttempt(OutcomeInvalidCredentials)
			return nil, common.ErrInvalidCredentials
		}
		s.observer.LoginAttempt(OutcomeError)
		return nil, err
	}

	var pair *TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		locked, err := s.repomanager.Users(tx).LockUser(ctx, user.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		issued, err := locked.CreateRefreshToken(now, s.refreshTokenValidityDuration, p)
		if err != nil {
			return err
		}
		if err := s.saveRefreshTokens(ctx, tx, locked); err != nil {
			return err
		}

		pair, err = s.issuePair(locked, issued, now)
		return err
	})
	if err != nil {
		s.observer.LoginAttempt(OutcomeError)
		return nil, fmt.Errorf("error opening session: %w", err)
	}

	s.observer.LoginAttempt(OutcomeSuccess)
	s.logger.Info(ctx, "User logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed. Presenting a token that exists but is no longer valid revokes
// every token of its owner; that revocation is committed before the returned
// error, which matches both common.ErrInvalidRefreshToken and
// common.ErrRefreshTokenReuse.
func (s *UserService) Refresh(ctx context.Context, rawToken string, p models.Provenance) (*TokenPair, error) {
	if rawToken == "" {
		s.observer.RefreshAttempt(OutcomeMissing)
		return nil, common.ErrMissingRefreshToken
	}
	hash := auth.HashRefreshToken(rawToken)

	var (
		pair    *TokenPair
		userID  string
		revoked = -1
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.loadWithTokens(ctx, tx, hash)
		if err != nil {
			return err
		}
		userID = user.ID

		now := s.clock.Now()
		if user.FindValidRefreshToken(hash, now) == nil {
			revoked = user.RevokeAllRefreshTokens()
			return s.saveRefreshTokens(ctx, tx, user)
		}

		issued, err := user.RotateRefreshToken(hash, now, s.refreshTokenValidityDuration, p)
		if err != nil {
			return err
		}
		if err := s.saveRefreshTokens(ctx, tx, user); err != nil {
			return err
		}

		pair, err = s.issuePair(user, issued, now)
		return err
	})

	switch {
	case errors.Is(err, common.ErrInvalidRefreshToken):
		s.observer.RefreshAttempt(OutcomeInvalid)
		return nil, common.ErrInvalidRefreshToken
	case err != nil:
		s.observer.RefreshAttempt(OutcomeError)
		return nil, fmt.Errorf("error refreshing session: %w", err)
	case revoked >= 0:
		s.observer.RefreshAttempt(OutcomeReuse)
		s.observer.ReuseDetected(revoked)
		s.logger.Warn(ctx, "Refresh token reuse detected, all sessions revoked", "user_id", userID, "revoked", revoked)
		return nil, fmt.Errorf("%w: %w", common.ErrRefreshTokenReuse, common.ErrInvalidRefreshToken)
	}

	s.observer.RefreshAttempt(OutcomeSuccess)
	s.logger.Debug(ctx, "Refresh token rotated", "user_id", userID)
	return pair, nil
}

// Logout revokes the presented refresh token. It never fails: an empty or
// unknown token is a no-op and storage errors are only logged.
func (s *UserService) Logout(ctx context.Context, rawToken string) {
	defer s.observer.LogoutCompleted()

	if rawToken == "" {
		return
	}
	hash := auth.HashRefreshToken(rawToken)

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.loadWithTokens(ctx, tx, hash)
		if err != nil {
			return err
		}
		user.RevokeRefreshToken(hash)
		return s.saveRefreshTokens(ctx, tx, user)
	})
	switch {
	case errors.Is(err, common.ErrInvalidRefreshToken):
		s.logger.Debug(ctx, "Logout with unknown refresh token")
	case err != nil:
		s.logger.Warn(ctx, "Logout could not revoke refresh token", "error", err.Error())
	}
}

// Authenticate resolves an access token to its user. Bad, expired and
// orphaned tokens give common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.signer.Parse(accessToken)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// loadWithTokens finds the owner of hash, locks it and loads its refresh
// tokens. An unknown hash gives common.ErrInvalidRefreshToken.
func (s *UserService) loadWithTokens(ctx context.Context, tx dbx.DBTX, hash string) (*models.User, error) {
	ownerID, err := s.repomanager.RefreshTokens(tx).FindOwner(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}

	user, err := s.repomanager.Users(tx).LockUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	user.RefreshTokens, err = s.repomanager.RefreshTokens(tx).ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// saveRefreshTokens writes the records the user created or changed.
func (s *UserService) saveRefreshTokens(ctx context.Context, tx dbx.DBTX, user *models.User) error {
	repo := s.repomanager.RefreshTokens(tx)
	created, updated := user.PendingRefreshTokenChanges()

	for _, t := range created {
		if err := repo.Create(ctx, user.ID, t); err != nil {
			return err
		}
	}
	for _, t := range updated {
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
	}

	user.MarkRefreshTokensPersisted()
	return nil
}

func (s *UserService) issuePair(user *models.User, issued *models.IssuedToken, now time.Time) (*TokenPair, error) {
	accessToken, err := s.signer.Sign(user.ID, user.Username, now)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     issued.Raw,
		RefreshExpiresAt: issued.ExpiresAt,
	}, nil
}
