package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mars-alien/NoteTakingApp/internal/adapter"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/store"
	"github.com/mars-alien/NoteTakingApp/models"
)

// CredentialListener is told when a fresh credential is available.
type CredentialListener interface {
	CredentialRefreshed()
}

type clientAuthService struct {
	users    store.LocalUserRepository
	adapter  adapter.ServerAdapter
	listener CredentialListener
	now      func() time.Time
}

// NewClientAuthService constructs the client auth service. listener may be
// nil.
func NewClientAuthService(localStore *store.ClientStorages, serverAdapter adapter.ServerAdapter, listener CredentialListener) ClientAuthService {
	return &clientAuthService{
		users:    localStore.Users,
		adapter:  serverAdapter,
		listener: listener,
		now:      time.Now,
	}
}

func (a *clientAuthService) Register(ctx context.Context, login, password string) (models.Credential, error) {
	if login == "" || password == "" {
		return models.Credential{}, ErrInvalidDataProvided
	}

	session, err := a.adapter.Register(ctx, login, password)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %w", ErrRegisterOnServer, mapAdapterError(err))
	}

	return a.remember(ctx, login, session)
}

func (a *clientAuthService) Login(ctx context.Context, login, password string) (models.Credential, error) {
	if login == "" || password == "" {
		return models.Credential{}, ErrInvalidDataProvided
	}

	session, err := a.adapter.Login(ctx, login, password)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %w", ErrLoginOnServer, mapAdapterError(err))
	}

	return a.remember(ctx, login, session)
}

func (a *clientAuthService) remember(ctx context.Context, login string, session models.Session) (models.Credential, error) {
	cred := models.Credential{
		UserID: session.UserID,
		Login:  login,
		Token:  session.Token,
		At:     a.now().UTC(),
	}

	if err := a.users.SaveCredential(ctx, cred); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientAuthService.remember").Msg("caching credential failed")
		return models.Credential{}, fmt.Errorf("save credential: %w", err)
	}

	a.adapter.SetToken(cred.Token)
	if a.listener != nil {
		a.listener.CredentialRefreshed()
	}
	return cred, nil
}

func (a *clientAuthService) RestoreSession(ctx context.Context) (models.Credential, error) {
	cred, err := a.users.GetCredential(ctx)
	if err != nil {
		return models.Credential{}, err
	}

	a.adapter.SetToken(cred.Token)
	return cred, nil
}

func (a *clientAuthService) Logout(ctx context.Context) error {
	a.adapter.SetToken("")
	return a.users.ClearCredential(ctx)
}
