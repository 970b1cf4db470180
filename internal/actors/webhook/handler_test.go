package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// trackingRepository counts repository calls so tests can assert that rejected
// deliveries never reach persistence.
type trackingRepository struct {
	createCalled bool
	createError  error

	getUser  *model.User
	getError error

	updateCalled bool
	updatePatch  ports.UserPatch
	updateResult *model.User

	deleteCalled bool
	deleteResult *model.User

	mutations int
}

func (r *trackingRepository) CreateUser(ctx context.Context, user *model.User) error {
	r.createCalled = true
	r.mutations++
	if r.createError != nil {
		return r.createError
	}
	user.ID = uuid.New()
	return nil
}

func (r *trackingRepository) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getUser, r.getError
}

func (r *trackingRepository) UpdateUser(ctx context.Context, id uuid.UUID, patch ports.UserPatch) (*model.User, error) {
	r.updateCalled = true
	r.updatePatch = patch
	r.mutations++
	return r.updateResult, nil
}

func (r *trackingRepository) DeleteUser(ctx context.Context, externalID string) (*model.User, error) {
	r.deleteCalled = true
	r.mutations++
	return r.deleteResult, nil
}

type trackingNotifier struct {
	called    bool
	sendError error
}

func (n *trackingNotifier) SendWelcomeEmail(ctx context.Context, email model.WelcomeEmail) error {
	n.called = true
	return n.sendError
}

type stubReplayCache struct {
	seen bool
	err  error
}

func (c *stubReplayCache) Remember(ctx context.Context, messageID string) (bool, error) {
	return c.seen, c.err
}

func newTestRouter(t *testing.T, repo ports.Repository, notifier ports.Notifier, optArgs ...HandlerOptArgs) *gin.Engine {
	t.Helper()
	verifier, err := NewVerifier(
		VerifierArgs{Secret: testSecret},
		WithNowFunc(func() time.Time { return verifyTime }),
	)
	require.NoError(t, err)

	handler := NewHandler(HandlerArgs{
		Verifier: verifier,
		Usecase:  usecase.NewSyncService(usecase.SyncServiceArgs{Repository: repo, Notifier: notifier}),
	}, optArgs...)

	router := gin.New()
	handler.Register(router)
	return router
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	timestamp := strconv.FormatInt(verifyTime.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set(HeaderID, "msg_1")
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, signBody(t, testSecret, "msg_1", timestamp, body))
	return req
}

func createdPayload(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	data := map[string]any{
		"id": "user_1",
		"email_addresses": []map[string]any{
			{"id": "idn_1", "email_address": "jane@example.com"},
		},
		"first_name": "Jane",
		"last_name":  "Doe",
	}
	for k, v := range overrides {
		data[k] = v
	}
	body, err := json.Marshal(map[string]any{"type": "user.created", "data": data})
	require.NoError(t, err)
	return body
}

func TestHandler_MissingHeaders(t *testing.T) {
	body := createdPayload(t, nil)
	for _, header := range []string{HeaderID, HeaderTimestamp, HeaderSignature} {
		t.Run("missing "+header, func(t *testing.T) {
			repo := &trackingRepository{}
			router := newTestRouter(t, repo, &trackingNotifier{})

			req := signedRequest(t, body)
			req.Header.Del(header)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Zero(t, repo.mutations)
		})
	}
}

func TestHandler_TamperedSignature(t *testing.T) {
	repo := &trackingRepository{}
	router := newTestRouter(t, repo, &trackingNotifier{})

	req := signedRequest(t, createdPayload(t, nil))
	req.Header.Set(HeaderSignature, "v1,dGFtcGVyZWQgc2lnbmF0dXJlCg==")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, repo.mutations)
}

func TestHandler_MissingSecretFailsClosed(t *testing.T) {
	repo := &trackingRepository{}
	handler := NewHandler(HandlerArgs{
		Verifier: nil,
		Usecase:  usecase.NewSyncService(usecase.SyncServiceArgs{Repository: repo, Notifier: &trackingNotifier{}}),
	})
	router := gin.New()
	handler.Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Zero(t, repo.mutations)
}

func TestHandler_UserCreated(t *testing.T) {
	repo := &trackingRepository{}
	notifier := &trackingNotifier{}
	router := newTestRouter(t, repo, notifier)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, repo.createCalled)
	require.True(t, notifier.called)

	var response struct {
		Success bool       `json:"success"`
		Outcome string     `json:"outcome"`
		User    model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.True(t, response.Success)
	require.Equal(t, string(model.OutcomeCreated), response.Outcome)
	require.Equal(t, "Jane Doe", response.User.Name)
	require.Equal(t, "jane@example.com", response.User.Email)
}

func TestHandler_UserCreatedConflictIsSuccess(t *testing.T) {
	repo := &trackingRepository{
		createError: model.ErrConflict,
		getUser:     &model.User{ExternalID: "user_1", Email: "jane@example.com"},
	}
	router := newTestRouter(t, repo, &trackingNotifier{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), string(model.OutcomeAlreadyExists))
}

func TestHandler_UserCreatedWithoutEmail(t *testing.T) {
	repo := &trackingRepository{}
	router := newTestRouter(t, repo, &trackingNotifier{})

	body := createdPayload(t, map[string]any{"email_addresses": []map[string]any{}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, repo.mutations)
}

func TestHandler_NotificationFailureStillSucceeds(t *testing.T) {
	repo := &trackingRepository{}
	notifier := &trackingNotifier{sendError: errors.New("queue unavailable")}
	router := newTestRouter(t, repo, notifier)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, repo.createCalled)
	require.Contains(t, rec.Body.String(), `"user"`)
}

func TestHandler_UserUpdatedNotFound(t *testing.T) {
	repo := &trackingRepository{getError: model.ErrNotFound}
	router := newTestRouter(t, repo, &trackingNotifier{})

	body, err := json.Marshal(map[string]any{
		"type": "user.updated",
		"data": map[string]any{"id": "user_unknown", "first_name": "Jane"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, repo.updateCalled)
}

func TestHandler_UserUpdatedImageOnly(t *testing.T) {
	existing := &model.User{ID: uuid.New(), ExternalID: "user_1", Email: "jane@example.com", Name: "Jane Doe"}
	repo := &trackingRepository{
		getUser:      existing,
		updateResult: existing,
	}
	router := newTestRouter(t, repo, &trackingNotifier{})

	body, err := json.Marshal(map[string]any{
		"type": "user.updated",
		"data": map[string]any{"id": "user_1", "image_url": "https://img.example.com/p.png"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, repo.updateCalled)
	require.Equal(t, ports.UserPatch{ImageURL: "https://img.example.com/p.png"}, repo.updatePatch)
}

func TestHandler_UserDeletedAbsentIsIdempotent(t *testing.T) {
	repo := &trackingRepository{getError: model.ErrNotFound}
	router := newTestRouter(t, repo, &trackingNotifier{})

	body, err := json.Marshal(map[string]any{
		"type": "user.deleted",
		"data": map[string]any{"id": "user_gone"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, repo.deleteCalled)
	require.Contains(t, rec.Body.String(), string(model.OutcomeNothingToDelete))
}

func TestHandler_UnknownEventKindIsAcknowledged(t *testing.T) {
	repo := &trackingRepository{}
	router := newTestRouter(t, repo, &trackingNotifier{})

	body, err := json.Marshal(map[string]any{
		"type": "session.created",
		"data": map[string]any{"id": "sess_1"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, repo.mutations)
	require.Contains(t, rec.Body.String(), string(model.OutcomeIgnored))
}

func TestHandler_ReplayCache(t *testing.T) {
	t.Run("duplicate delivery is acknowledged without repository calls", func(t *testing.T) {
		repo := &trackingRepository{}
		router := newTestRouter(t, repo, &trackingNotifier{}, WithReplayCache(&stubReplayCache{seen: true}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"duplicate":true`)
		require.Zero(t, repo.mutations)
	})

	t.Run("cache outage does not block the delivery", func(t *testing.T) {
		repo := &trackingRepository{}
		router := newTestRouter(t, repo, &trackingNotifier{}, WithReplayCache(&stubReplayCache{err: errors.New("redis down")}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, signedRequest(t, createdPayload(t, nil)))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, repo.createCalled)
	})
}

func TestHandler_MalformedPayload(t *testing.T) {
	repo := &trackingRepository{}
	router := newTestRouter(t, repo, &trackingNotifier{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, []byte("not-json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, repo.mutations)
}
