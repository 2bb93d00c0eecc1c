package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medtrack.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "medtrack.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}

	var syncVal int
	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	if syncVal != 1 { // NORMAL
		t.Fatalf("expected synchronous=NORMAL, got %d", syncVal)
	}
}

func TestKV_SetGetOverwrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, ok, err := GetValue(ctx, db, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := SetValue(ctx, db, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := GetValue(ctx, db, "k"); !ok || v != "v1" {
		t.Fatalf("get: ok=%v v=%q", ok, v)
	}

	if err := SetValue(ctx, db, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := GetValue(ctx, db, "k"); v != "v2" {
		t.Fatalf("after overwrite: %q", v)
	}
}

func TestMedications_RoundTripKeepsLegacyShape(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	meds := []domain.Medication{{
		ID:              "m1",
		Name:            "Ibuprofen",
		Type:            "pill",
		CurrentQuantity: 30,
		PackageQuantity: 50,
		DoseAmount:      1,
		TimesPerDay:     2,
		DoseTimes:       []string{"08:00", "20:00"},
		MealRelation:    domain.MealAfter,
		Interval:        domain.IntervalDaily,
		StartDate:       "2025-01-01",
	}}
	if err := SaveMedications(ctx, db, meds); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, ok, err := GetValue(ctx, db, domain.KeyMedications)
	if err != nil || !ok {
		t.Fatalf("raw get: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(raw, `"currentQuantity":"30"`) {
		t.Fatalf("stored blob must keep quantities as numeric strings: %s", raw)
	}

	got, err := LoadMedications(ctx, db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].CurrentQuantity != 30 || got[0].Name != "Ibuprofen" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadMedications_MalformedIsEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := SetValue(ctx, db, domain.KeyMedications, "{not json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := LoadMedications(ctx, db)
	if err != nil {
		t.Fatalf("malformed data must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("malformed data must decode as empty, got %d", len(got))
	}
}

func TestHistory_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	scheduled := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	hist := map[string][]domain.HistoryRecord{
		"2025-03-01": {{
			MedicationID:    "m1",
			ScheduledTime:   scheduled,
			Action:          domain.ActionTaken,
			ActionTimestamp: scheduled.Add(3 * time.Minute),
		}},
	}
	if err := SaveHistory(ctx, db, hist); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadHistory(ctx, db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recs := got["2025-03-01"]
	if len(recs) != 1 || recs[0].Action != domain.ActionTaken {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !recs[0].ScheduledTime.Equal(scheduled) {
		t.Fatalf("scheduled time drifted: %v", recs[0].ScheduledTime)
	}
}

func TestLoadHistory_MissingAndMalformed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	got, err := LoadHistory(ctx, db)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("missing key: got=%v err=%v", got, err)
	}

	_ = SetValue(ctx, db, domain.KeyHistory, "[]") // wrong shape
	got, err = LoadHistory(ctx, db)
	if err != nil || len(got) != 0 {
		t.Fatalf("malformed: got=%v err=%v", got, err)
	}
}

func TestIdempotency_CreateGetDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u1", "m1", "key-1", 204, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ExpiresAt.Before(now) {
		t.Fatalf("bad record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "m1", "key-1", now)
	if err != nil || got == nil || got.Status != 204 {
		t.Fatalf("get: rec=%+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "m1", "key-1", 204, time.Hour); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := GetIdempotency(ctx, db, "u1", "", "key-1", now); err != ErrNotFound {
		t.Fatalf("blank medication id: expected ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "m1", "key-1", now.Add(2*time.Hour)); err != ErrNotFound {
		t.Fatalf("expired record must not be returned, got %v", err)
	}
}
