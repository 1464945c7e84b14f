package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is what login needs to know about a user before enrichment.
type Credentials struct {
	UserID       string
	PasswordHash string
	IsActive     bool
}

type RepositoryAPI interface {
	SessionStore
	// GetCredentials looks a user up by username or email.
	GetCredentials(ctx context.Context, login string) (*Credentials, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error)
	ValidateAccessToken(token string) (*Claims, error)
	ResolveSession(ctx context.Context, claims *Claims) (Session, error)
}

type Service struct {
	repo      RepositoryAPI
	enricher  *Enricher
	tokens    TokenGenerator
	publisher events.Publisher
	now       internal.Clock
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGenerator, publisher events.Publisher, now internal.Clock, lg *slog.Logger) *Service {
	if now == nil {
		now = internal.SystemClock
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		repo:      repo,
		enricher:  NewEnricher(repo, now, lg),
		tokens:    tokens,
		publisher: publisher,
		now:       now,
		logger:    lg,
	}
}

// Authenticate checks credentials, records the sign-in and issues a token pair
// carrying the freshly enriched session.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Login())
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewFetchError("credentials", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	session, found, err := s.enricher.Enrich(ctx, Session{UserID: creds.UserID}, TriggerSignIn)
	if err != nil {
		return AuthTokens{}, err
	}
	if !found {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	tokens, err := s.issue(session)
	if err != nil {
		return AuthTokens{}, err
	}

	s.publish(ctx, events.NewActivityEvent(events.EventTypeUserSignedIn, session.UserID, "user", session.UserID,
		map[string]interface{}{"username": session.Username}))
	s.logger.Info("user signed in", "user_id", session.UserID)
	return tokens, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The session is
// rebuilt from the store so revoked or expired grants drop out.
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	session, found, err := s.enricher.Enrich(ctx, Session{UserID: claims.UserID}, TriggerRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	if !found {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !session.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(session)
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(token)
}

// ResolveSession enriches the session for one request. A user that no longer
// exists keeps the token snapshot, minus grants that lapsed since it was issued.
func (s *Service) ResolveSession(ctx context.Context, claims *Claims) (Session, error) {
	if claims == nil || claims.UserID == "" {
		return Session{}, internal.ErrUnauthorized
	}

	snapshot := Session{UserID: claims.UserID}
	if claims.Session != nil {
		snapshot = *claims.Session
		snapshot.UserID = claims.UserID
	}

	session, found, err := s.enricher.Enrich(ctx, snapshot, TriggerRefresh)
	if err != nil {
		return Session{}, err
	}
	if !found {
		session = snapshot.WithoutExpired(s.now())
	}
	if !session.IsActive {
		return Session{}, internal.ErrUserInactive
	}
	return session, nil
}

func (s *Service) issue(session Session) (AuthTokens, error) {
	access, expiresAt, err := s.tokens.GenerateAccessToken(session)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(session)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.Unix(),
		Session:      session,
	}, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
