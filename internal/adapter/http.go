package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mars-alien/NoteTakingApp/internal/config"
	"github.com/mars-alien/NoteTakingApp/internal/logger"
	"github.com/mars-alien/NoteTakingApp/internal/utils"
	"github.com/mars-alien/NoteTakingApp/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the REST implementation of [ServerAdapter].
// adapterCfg.HTTPAddress may omit the scheme, in which case http is assumed.
func NewHTTPServerAdapter(adapterCfg config.Adapter, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpServerAdapter{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpServerAdapter) Register(ctx context.Context, login, password string) (models.Session, error) {
	return h.authenticate(ctx, "/api/auth/register", login, password)
}

func (h *httpServerAdapter) Login(ctx context.Context, login, password string) (models.Session, error) {
	return h.authenticate(ctx, "/api/auth/login", login, password)
}

// authenticate posts credentials and keeps the issued token. The token is
// taken from the body, falling back to the Authorization header.
func (h *httpServerAdapter) authenticate(ctx context.Context, path, login, password string) (models.Session, error) {
	var session models.Session

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.User{Login: login, Password: password}).
		SetResult(&session).
		Post(path)
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %s request: %w", ErrTransport, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Session{}, err
	}

	if session.Token == "" {
		token, parseErr := utils.ParseBearerToken(resp.Header().Get("Authorization"))
		if parseErr != nil {
			return models.Session{}, fmt.Errorf("%w: no token issued: %w", ErrUnexpectedResponse, parseErr)
		}
		session.Token = token
	}

	h.SetToken(session.Token)
	return session, nil
}

func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrTransport, err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) CreateNote(ctx context.Context, note models.NotePayload) (models.RemoteNote, error) {
	var created models.RemoteNote

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(note).
		SetResult(&created).
		Post("/notes")
	if err != nil {
		return models.RemoteNote{}, fmt.Errorf("%w: create note request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteNote{}, err
	}

	return created, nil
}

func (h *httpServerAdapter) UpdateNote(ctx context.Context, remoteID string, note models.NotePayload) (models.RemoteNote, *models.SyncRejection, error) {
	var updated models.RemoteNote

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("remoteId", remoteID).
		SetBody(note).
		SetResult(&updated).
		Patch("/notes/{remoteId}")
	if err != nil {
		return models.RemoteNote{}, nil, fmt.Errorf("%w: update note request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		var rejection models.SyncRejection
		if resp.StatusCode() == http.StatusConflict && json.Unmarshal(resp.Body(), &rejection) == nil && rejection.Reason != "" {
			return models.RemoteNote{}, &rejection, err
		}
		return models.RemoteNote{}, nil, err
	}

	return updated, nil, nil
}

func (h *httpServerAdapter) DeleteNote(ctx context.Context, remoteID string) error {
	resp, err := h.authedRequest(ctx).
		SetPathParam("remoteId", remoteID).
		Delete("/notes/{remoteId}")
	if err != nil {
		return fmt.Errorf("%w: delete note request: %w", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) PushNotes(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	var result models.SyncResponse

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post("/notes/sync")
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: push request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SyncResponse{}, err
	}

	return result, nil
}

func (h *httpServerAdapter) PullChanges(ctx context.Context, since time.Time) ([]models.RemoteNote, error) {
	var changes []models.RemoteNote

	resp, err := h.authedRequest(ctx).
		SetPathParam("timestamp", since.UTC().Format(time.RFC3339Nano)).
		SetResult(&changes).
		Get("/notes/sync/after/{timestamp}")
	if err != nil {
		return nil, fmt.Errorf("%w: pull request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return changes, nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}
