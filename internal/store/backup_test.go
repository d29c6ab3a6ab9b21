package store

import (
	"testing"
	"time"

	"github.com/dukerupert/north/internal/model"
)

func TestBackupCreate(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, err := bs.Create("north-20260205T120000Z.json.enc", "snapshots/north-20260205T120000Z.json.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.S3Key != b.S3Key {
		t.Errorf("got = %+v", got)
	}
}

func TestBackupGetMissing(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	got, err := bs.GetByID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestBackupStatusAndLatest(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Errorf("expected no completed backup, got %+v", latest)
	}

	a, _ := bs.Create("a.json.enc", "snapshots/a.json.enc")
	b, _ := bs.Create("b.json.enc", "snapshots/b.json.enc")

	if err := bs.UpdateStatus(a.ID, model.BackupStatusFailed, "upload refused"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := bs.UpdateCompleted(b.ID, 2048); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	failed, _ := bs.GetByID(a.ID)
	if failed.Status != model.BackupStatusFailed || failed.ErrorMessage != "upload refused" {
		t.Errorf("failed backup = %+v", failed)
	}

	latest, err = bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.ID != b.ID {
		t.Fatalf("latest = %+v, want id %d", latest, b.ID)
	}
	if latest.SizeBytes != 2048 || latest.CompletedAt == nil {
		t.Errorf("latest = %+v", latest)
	}

	list, err := bs.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list = %d, want 2", len(list))
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	old, _ := bs.Create("old.json.enc", "snapshots/old.json.enc")
	bs.db.Exec(`UPDATE backups SET created_at = ? WHERE id = ?`, time.Now().UTC().AddDate(0, 0, -40), old.ID)
	bs.Create("new.json.enc", "snapshots/new.json.enc")

	keys, err := bs.DeleteOlderThan(time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete older: %v", err)
	}
	if len(keys) != 1 || keys[0] != "snapshots/old.json.enc" {
		t.Errorf("keys = %v", keys)
	}
	list, _ := bs.List(10)
	if len(list) != 1 {
		t.Errorf("remaining = %d, want 1", len(list))
	}
}
