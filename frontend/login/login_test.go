package login

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"depalletconsole/infrastructure/argon"
	"depalletconsole/infrastructure/cache"
	sessioncookie "depalletconsole/infrastructure/session"
	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/models"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "login.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, dir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestValidatePasswordPolicy(t *testing.T) {
	cases := []struct {
		name string
		pwd  string
		ok   bool
	}{
		{name: "letters and digits", pwd: "palletizer42", ok: true},
		{name: "hangul counts as letters", pwd: "창고관리자비밀번호7", ok: true},
		{name: "short", pwd: "abc123", ok: false},
		{name: "no digit", pwd: "palletizerx", ok: false},
		{name: "no letter", pwd: "1234567890", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tc.pwd)
			if tc.ok && err != nil {
				t.Fatalf("expected valid password, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected policy error")
			}
		})
	}
}

func TestUpsertOperatorAndAuthenticate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := UpsertOperator(ctx, db, "floor1", "firstPass123"); err != nil {
		t.Fatalf("create operator: %v", err)
	}
	if err := UpsertOperator(ctx, db, "floor1", "secondPass456"); err != nil {
		t.Fatalf("reset operator: %v", err)
	}

	if _, err := authenticateOperator(ctx, db, "floor1", "firstPass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	op, err := authenticateOperator(ctx, db, " FLOOR1 ", "secondPass456")
	if err != nil || op.Username != "floor1" {
		t.Fatalf("expected login with new password, got %+v err=%v", op, err)
	}
	if _, err := authenticateOperator(ctx, db, "nobody", "secondPass456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected unknown user rejected, got %v", err)
	}
	if err := UpsertOperator(ctx, db, "floor2", "short"); err == nil {
		t.Fatalf("expected policy error")
	}
}

func TestAuthenticateRehashesOutdatedHash(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cheap := &argon.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	old, err := argon.CreateHash("firstPass123", cheap)
	if err != nil {
		t.Fatalf("create hash: %v", err)
	}
	if err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models.Operator{Username: "legacy", PasswordHash: old}).Exec(ctx)
		return err
	}); err != nil {
		t.Fatalf("insert operator: %v", err)
	}

	if _, err := authenticateOperator(ctx, db, "legacy", "firstPass123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	var op models.Operator
	if err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&op).Where("username = ?", "legacy").Scan(ctx)
	}); err != nil {
		t.Fatalf("load operator: %v", err)
	}
	if op.PasswordHash == old || argon.NeedsRehash(op.PasswordHash, argon.DefaultParams) {
		t.Fatalf("expected the hash upgraded to the default params")
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := UpsertOperator(ctx, db, "floor1", "firstPass123"); err != nil {
		t.Fatalf("create operator: %v", err)
	}
	op, err := authenticateOperator(ctx, db, "floor1", "firstPass123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	live := models.Session{ID: "live", OperatorID: op.ID, ExpiresAt: time.Now().Add(time.Hour)}
	stale := models.Session{ID: "stale", OperatorID: op.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	for _, s := range []models.Session{live, stale} {
		if err := persistSession(ctx, db, s); err != nil {
			t.Fatalf("persist session: %v", err)
		}
	}

	got, err := LoadSessionByToken(ctx, db, "live")
	if err != nil || got.Operator.Username != "floor1" {
		t.Fatalf("expected live session with operator, got %+v err=%v", got, err)
	}
	if _, err := LoadSessionByToken(ctx, db, "stale"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}

	if err := persistSession(ctx, db, models.Session{ID: "old", OperatorID: op.ID, ExpiresAt: time.Now().Add(-time.Minute)}); err != nil {
		t.Fatalf("persist old session: %v", err)
	}
	n, err := PurgeExpiredSessions(ctx, db, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("expected one purged session, got %d err=%v", n, err)
	}

	if err := DeleteSessionByToken(ctx, db, "live"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := LoadSessionByToken(ctx, db, "live"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected deleted session gone, got %v", err)
	}
}

func TestCreateLoginHandler(t *testing.T) {
	db := openTestDB(t)
	if err := UpsertOperator(context.Background(), db, "floor1", "firstPass123"); err != nil {
		t.Fatalf("create operator: %v", err)
	}
	sessions := cache.NewSessionCache()
	h := CreateLoginHandler(db, sessions)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post(url.Values{"username": {"floor1"}, "password": {"wrongPass999"}})
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?error=") {
		t.Fatalf("expected error redirect, got %q", loc)
	}

	rec = post(url.Values{"username": {"floor1"}, "password": {"firstPass123"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != HomePath {
		t.Fatalf("expected redirect home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessioncookie.CookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatalf("expected session cookie")
	}
	if s, ok := sessions.Find(token); !ok || s.Operator.Username != "floor1" {
		t.Fatalf("expected cached session, got %+v", s)
	}
}

func TestLoginScreenShowsError(t *testing.T) {
	rec := httptest.NewRecorder()
	GetLoginScreenHandler(rec, httptest.NewRequest(http.MethodGet, "/login?error=bad+%3Cinput%3E", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "bad &lt;input&gt;") || !strings.Contains(body, `action="/login"`) {
		t.Fatalf("unexpected login page %d: %s", rec.Code, body)
	}
}
