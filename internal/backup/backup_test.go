package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/north/internal/database"
	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/store"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

type memSource struct {
	mu   sync.Mutex
	snap model.Snapshot
}

func (s *memSource) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

func (s *memSource) Replace(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

var testS3 = S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret"}

func newTestManager(t *testing.T, cfg Config, src Source) (*Manager, *mockS3Client) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewManager(cfg, store.NewBackupStore(db), src, nil, nil)
	mock := newMockS3()
	m.client = mock
	m.now = func() time.Time { return time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC) }
	return m, mock
}

func sampleSource() *memSource {
	snap := model.DefaultSnapshot()
	snap.Contracts = []model.Contract{{
		ID:         "c1",
		Promise:    "Run 5k",
		DeadlineAt: time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC),
		UnlockAt:   time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC),
		Status:     model.ContractActive,
	}}
	snap.Rewards.XP = 24
	return &memSource{snap: snap}
}

func TestManagerStateLifecycle(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil)
	assert.Equal(t, StateDisabled, m.Status().State)

	m2 := NewManager(Config{S3: testS3}, nil, nil, nil, nil)
	assert.Equal(t, StateIdle, m2.Status().State)
}

func TestManagerStatusCallback(t *testing.T) {
	var received []Status
	var mu sync.Mutex
	cb := func(s Status) {
		mu.Lock()
		received = append(received, s)
		mu.Unlock()
	}

	m := NewManager(Config{S3: testS3}, nil, nil, cb, nil)
	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.setStatus(Status{State: StateIdle})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, StateRunning, received[0].State)
	assert.Equal(t, StateIdle, received[1].State)
}

func TestRunNowAndRestore(t *testing.T) {
	ctx := context.Background()
	src := sampleSource()
	m, mock := newTestManager(t, Config{S3: testS3, Passphrase: "hunter2"}, src)

	rec, err := m.RunNow(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.BackupStatusCompleted, rec.Status)
	assert.Equal(t, "snapshots/north-20260205T120000Z.json.enc", rec.S3Key)
	assert.Equal(t, StateIdle, m.Status().State)
	assert.NotNil(t, m.Status().LastBackup)

	stored := mock.objects[rec.S3Key]
	require.NotEmpty(t, stored)
	assert.False(t, strings.Contains(string(stored), "Run 5k"), "snapshot must be encrypted")
	assert.EqualValues(t, len(stored), rec.SizeBytes)

	src.Replace(model.DefaultSnapshot())
	require.NoError(t, m.Restore(ctx, ""))

	got := src.Snapshot()
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, "Run 5k", got.Contracts[0].Promise)
	assert.Equal(t, 24, got.Rewards.XP)
}

func TestRestoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	src := sampleSource()
	m, _ := newTestManager(t, Config{S3: testS3, Passphrase: "right"}, src)

	rec, err := m.RunNow(ctx)
	require.NoError(t, err)

	m.cfg.Passphrase = "wrong"
	err = m.Restore(ctx, rec.S3Key)
	require.Error(t, err)
	assert.Len(t, src.Snapshot().Contracts, 1, "state must be untouched")
}

func TestRestoreNoBackups(t *testing.T) {
	m, _ := newTestManager(t, Config{S3: testS3, Passphrase: "p"}, sampleSource())
	assert.ErrorIs(t, m.Restore(context.Background(), ""), ErrNotFound)
}

func TestRunNowUploadFailure(t *testing.T) {
	m, mock := newTestManager(t, Config{S3: testS3, Passphrase: "p"}, sampleSource())
	mock.putErr = errors.New("bucket gone")

	_, err := m.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, m.Status().State)

	list, err := m.List(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.BackupStatusFailed, list[0].Status)
}

func TestRunNowRequiresConfig(t *testing.T) {
	m := NewManager(Config{}, nil, sampleSource(), nil, nil)
	_, err := m.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	m2, _ := newTestManager(t, Config{S3: testS3}, sampleSource())
	_, err = m2.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrNoPassphrase)
}

func TestCleanupRemovesObjects(t *testing.T) {
	ctx := context.Background()
	m, mock := newTestManager(t, Config{S3: testS3, Passphrase: "p"}, sampleSource())

	rec, err := m.RunNow(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Cleanup(ctx, time.Now().Add(time.Hour)))
	_, ok := mock.objects[rec.S3Key]
	assert.False(t, ok)
}

func TestManagerStopSafety(t *testing.T) {
	m := NewManager(Config{S3: testS3, Interval: time.Hour}, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	m.Stop()

	// Double stop should not panic
	m.Stop()
}

func TestManagerDisabledNoStart(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil)
	m.Start(context.Background())
	m.Stop()
}
