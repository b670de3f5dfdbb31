package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg/cache"
	"github.com/vignesh0909/adbond.net-sub002/repository"
	"github.com/vignesh0909/adbond.net-sub002/ws"
)

// recordingHub captures published events instead of sending them.
type recordingHub struct {
	mu           sync.Mutex
	events       []recordedEvent
	online       []string
	disconnected []string
}

type recordedEvent struct {
	To    string // "" for broadcasts
	Event ws.Event
}

func (h *recordingHub) BroadcastToAll(event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{Event: event})
}

func (h *recordingHub) BroadcastToAllExcept(_ string, event ws.Event) {
	h.BroadcastToAll(event)
}

func (h *recordingHub) BroadcastToUser(userID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{To: userID, Event: event})
}

func (h *recordingHub) GetOnlineUserIDs() []string { return h.online }

func (h *recordingHub) IsOnline(userID string) bool {
	for _, id := range h.online {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *recordingHub) DisconnectUser(userID, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, userID)
}

func (h *recordingHub) ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Event.Op
	}
	return out
}

func (h *recordingHub) last() recordedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

// recordingMailer remembers what would have been sent.
type recordingMailer struct {
	mu     sync.Mutex
	resets map[string]string
	// verification results by address
	results map[string]bool
	fail    error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{resets: map[string]string{}, results: map[string]bool{}}
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.resets[to] = token
	return nil
}

func (m *recordingMailer) SendVerificationResult(_ context.Context, to string, approved bool, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[to] = approved
	return nil
}

type testEnv struct {
	db       *database.DB
	hub      *recordingHub
	mailer   *recordingMailer
	users    repository.UserRepository
	sessions repository.SessionRepository
	resets   repository.PasswordResetRepository
	bans     repository.BanRepository
	entities repository.EntityRepository
	offers   repository.OfferRepository
	reviews  repository.ReviewRepository
	chat     repository.ChatRepository
	verifs   repository.VerificationRepository
	stats    repository.StatsRepository
	uploads  UploadService
	ratings  *RatingCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"), database.MigrationsFS())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	uploads, err := NewUploadService(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	ratings := cache.New[string, *models.RatingSummary](StatsTTL, StatsTTL)
	t.Cleanup(ratings.Close)

	return &testEnv{
		db:       db,
		hub:      &recordingHub{},
		mailer:   newRecordingMailer(),
		users:    repository.NewSQLiteUserRepo(db.Conn),
		sessions: repository.NewSQLiteSessionRepo(db.Conn),
		resets:   repository.NewSQLitePasswordResetRepo(db.Conn),
		bans:     repository.NewSQLiteBanRepo(db.Conn),
		entities: repository.NewSQLiteEntityRepo(db.Conn),
		offers:   repository.NewSQLiteOfferRepo(db.Conn),
		reviews:  repository.NewSQLiteReviewRepo(db.Conn),
		chat:     repository.NewSQLiteChatRepo(db.Conn),
		verifs:   repository.NewSQLiteVerificationRepo(db.Conn),
		stats:    repository.NewSQLiteStatsRepo(db.Conn),
		uploads:  uploads,
		ratings:  ratings,
	}
}

func (e *testEnv) entityService() EntityService {
	return NewEntityService(e.entities, e.uploads, e.ratings)
}

func (e *testEnv) user(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Status:       models.UserStatusOffline,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) entity(t *testing.T, owner *models.User, name string, typ models.EntityType, status models.EntityStatus) *models.Entity {
	t.Helper()
	ent := &models.Entity{OwnerID: owner.ID, Name: name, Type: typ, Status: status}
	require.NoError(t, e.entities.Create(context.Background(), ent))
	return ent
}

// multipartFile builds an in-memory upload the way the upload validator
// hands it to services.
func multipartFile(t *testing.T, name string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["file"][0]
	f, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, header
}

// pngBytes is the smallest content http.DetectContentType sniffs as PNG.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
