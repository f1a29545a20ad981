package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"memberboard/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) AccountRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewAccountRepository(db)
}

func seedAccount(t *testing.T, repo AccountRepository, email string) *domain.Account {
	t.Helper()
	a := &domain.Account{Email: email, Nickname: "tester", PasswordHash: "!"}
	if err := repo.Create(a); err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return a
}

func TestAccountRepositoryCreateAndFindByEmail(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")

	accounts, err := repo.FindByEmail("a@b.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Email != "a@b.com" {
		t.Fatalf("unexpected result: %+v", accounts)
	}

	none, err := repo.FindByEmail("nobody@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no match, got %+v", none)
	}
}

func TestAccountRepositoryEmailUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")

	err := repo.Create(&domain.Account{Email: "a@b.com", Nickname: "dupe", PasswordHash: "!"})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}

	accounts, err := repo.FindByEmail("a@b.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("store must hold exactly one record, got %d", len(accounts))
	}
}

func TestAccountRepositoryTouchSessionCounters(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")
	now := repo.Now()

	for _, restored := range []bool{false, false, true} {
		rows, err := repo.TouchSession("a@b.com", now, restored)
		if err != nil {
			t.Fatalf("touch: %v", err)
		}
		if rows != 1 {
			t.Fatalf("expected one row touched, got %d", rows)
		}
	}

	accounts, _ := repo.FindByEmail("a@b.com")
	got := accounts[0]
	if got.LoginCount != 2 || got.SessionCount != 3 {
		t.Fatalf("counters mismatch: login=%d session=%d", got.LoginCount, got.SessionCount)
	}
	if got.LastSession == nil {
		t.Fatal("expected last session timestamp")
	}
}

func TestAccountRepositoryTouchSessionUnknownEmail(t *testing.T) {
	repo := newTestRepo(t)
	rows, err := repo.TouchSession("nobody@x.com", repo.Now(), false)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected zero rows for unknown email, got %d", rows)
	}
}

func TestAccountRepositoryUpdatePasswordHashPredicated(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")

	if rows, err := repo.UpdatePasswordHash("a@b.com", "!", "hash-1"); err != nil || rows != 1 {
		t.Fatalf("initial update: rows=%d err=%v", rows, err)
	}

	// A write carrying a hash that is no longer current must not land.
	// This is what a change-password request sees when another rotation
	// committed between its credential check and its write.
	if rows, err := repo.UpdatePasswordHash("a@b.com", "!", "hash-2"); err != nil || rows != 0 {
		t.Fatalf("stale update: rows=%d err=%v", rows, err)
	}

	accounts, _ := repo.FindByEmail("a@b.com")
	if accounts[0].PasswordHash != "hash-1" {
		t.Fatalf("newer hash clobbered: %q", accounts[0].PasswordHash)
	}

	if rows, err := repo.UpdatePasswordHash("nobody@x.com", "hash-1", "hash-2"); err != nil || rows != 0 {
		t.Fatalf("unknown email: rows=%d err=%v", rows, err)
	}
}

func TestAccountRepositoryVerifyTokenLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")
	now := repo.Now()

	if rows, err := repo.SetVerifyToken("a@b.com", "token-1"); err != nil || rows != 1 {
		t.Fatalf("set token: rows=%d err=%v", rows, err)
	}
	if rows, err := repo.ConsumeVerifyToken("a@b.com", "token-1", now); err != nil || rows != 1 {
		t.Fatalf("consume: rows=%d err=%v", rows, err)
	}

	accounts, _ := repo.FindByEmail("a@b.com")
	if !accounts[0].Verified || accounts[0].VerifyToken != "" {
		t.Fatalf("expected verified account with cleared token, got %+v", accounts[0])
	}

	// Consumed token must not validate a second attempt.
	if rows, _ := repo.ConsumeVerifyToken("a@b.com", "token-1", now); rows != 0 {
		t.Fatalf("expected consumed token to fail, got %d rows", rows)
	}
}

func TestAccountRepositoryVerifyTokenOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@b.com")
	now := repo.Now()

	if _, err := repo.SetVerifyToken("a@b.com", "token-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := repo.SetVerifyToken("a@b.com", "token-2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if rows, _ := repo.ConsumeVerifyToken("a@b.com", "token-1", now); rows != 0 {
		t.Fatal("stale token must not validate")
	}
	if rows, _ := repo.ConsumeVerifyToken("a@b.com", "token-2", now); rows != 1 {
		t.Fatal("latest token must validate")
	}
}

func TestAccountRepositoryActivityCounts(t *testing.T) {
	repo := newTestRepo(t)
	now := repo.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	seedAccount(t, repo, "today@b.com")
	seedAccount(t, repo, "stale@b.com")
	seedAccount(t, repo, "never@b.com")

	if _, err := repo.TouchSession("today@b.com", now, false); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if _, err := repo.TouchSession("stale@b.com", now.AddDate(0, 0, -10), false); err != nil {
		t.Fatalf("touch: %v", err)
	}

	total, err := repo.CountAll()
	if err != nil || total != 3 {
		t.Fatalf("total=%d err=%v", total, err)
	}
	today, err := repo.CountActiveBetween(midnight, now)
	if err != nil || today != 1 {
		t.Fatalf("today=%d err=%v", today, err)
	}
	weekly, err := repo.CountActiveBetween(now.AddDate(0, 0, -7), now)
	if err != nil || weekly != 1 {
		t.Fatalf("weekly=%d err=%v", weekly, err)
	}
}

func TestAccountRepositoryListStripsPasswordHash(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "b@b.com")
	seedAccount(t, repo, "a@b.com")

	accounts, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].ID > accounts[1].ID {
		t.Fatal("expected ascending id order")
	}
	for _, a := range accounts {
		if a.PasswordHash != "" {
			t.Fatalf("password hash leaked for %s", a.Email)
		}
	}
}
