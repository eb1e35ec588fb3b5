package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/vaultshare/pkg/internal/crypto"
	"github.com/yeisme/vaultshare/pkg/internal/model"
	dbc "github.com/yeisme/vaultshare/pkg/internal/storage/db"
	"github.com/yeisme/vaultshare/pkg/internal/types"
)

const testMasterSecret = "unit-test-master-secret"

// newTestDB 构造内存 SQLite。限制为单连接：
// 每个新连接的 :memory: 都是独立数据库.
func newTestDB(t *testing.T) *dbc.Client {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&model.Share{}, &model.ShareAccessLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &dbc.Client{DB: gdb}
}

func newTestShareService(t *testing.T) *ShareService {
	t.Helper()

	return &ShareService{
		dbc: newTestDB(t),
		key: crypto.DeriveKey(testMasterSecret),
	}
}

func readerRequest() *types.CreateShareRequest {
	return &types.CreateShareRequest{
		ScopePath:  "notes/projects",
		ScopeType:  types.ScopeFolder,
		ExpiresIn:  "1d",
		Mode:       types.ModeReader,
		Credential: "AKIA:secret",
		RepoOwner:  "alice",
		RepoName:   "vault",
	}
}

func TestCreateShare(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	resp, err := svc.CreateShare(ctx, "alice", "Alice", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	sh := resp.Share
	if len(sh.Token) < 10 || sh.Token[:3] != "sh_" {
		t.Errorf("token %q lacks sh_ prefix or entropy", sh.Token)
	}

	if got := sh.ExpiresAt.Sub(sh.CreatedAt); got != 24*time.Hour {
		t.Errorf("expiry window = %v, want 24h", got)
	}

	if sh.AccessCount != 0 {
		t.Errorf("new share access count = %d, want 0", sh.AccessCount)
	}

	// 凭证密文入库且可用主密钥解开，明文绝不等于密文
	var row model.Share
	if err := svc.dbc.GetDB().Where("token = ?", sh.Token).First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}

	if row.EncryptedCredential == "" || row.EncryptedCredential == "AKIA:secret" {
		t.Fatalf("credential stored in the clear: %q", row.EncryptedCredential)
	}

	plain, err := crypto.Decrypt(row.EncryptedCredential, svc.key)
	if err != nil {
		t.Fatalf("decrypt stored credential: %v", err)
	}

	if plain != "AKIA:secret" {
		t.Errorf("decrypted credential = %q", plain)
	}
}

func TestCreateShareValidation(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*types.CreateShareRequest)
	}{
		{"empty scope path", func(r *types.CreateShareRequest) { r.ScopePath = "  " }},
		{"bad scope type", func(r *types.CreateShareRequest) { r.ScopeType = "workspace" }},
		{"bad mode", func(r *types.CreateShareRequest) { r.Mode = "admin" }},
		{"bad expiry", func(r *types.CreateShareRequest) { r.ExpiresIn = "soon" }},
		{"missing credential", func(r *types.CreateShareRequest) { r.Credential = "" }},
		{"missing repo", func(r *types.CreateShareRequest) { r.RepoOwner = "" }},
		{"deposit config on reader", func(r *types.CreateShareRequest) {
			r.Deposit = &types.DepositConfig{DepositFolder: "inbox"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := readerRequest()
			tt.mutate(req)

			if _, err := svc.CreateShare(ctx, "alice", "", req); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	if _, err := svc.CreateShare(ctx, "", "", readerRequest()); !errors.Is(err, ErrValidation) {
		t.Errorf("missing owner err = %v, want ErrValidation", err)
	}
}

func TestNoteScopeForcesSingleFile(t *testing.T) {
	svc := newTestShareService(t)

	req := readerRequest()
	req.ScopeType = types.ScopeNote
	req.ScopePath = "notes/daily/today"
	req.IncludeSubfolders = true

	resp, err := svc.CreateShare(context.Background(), "alice", "", req)
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	if resp.Share.IncludeSubfolders {
		t.Error("note scope must force include_subfolders=false")
	}
}

func TestDepositDefaults(t *testing.T) {
	svc := newTestShareService(t)

	req := readerRequest()
	req.Mode = types.ModeDeposit
	req.Deposit = &types.DepositConfig{MaxFileSize: 1024, AllowedExtensions: []string{"md", ".PDF"}}

	resp, err := svc.CreateShare(context.Background(), "alice", "", req)
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	dc := resp.Share.Deposit
	if dc == nil {
		t.Fatal("deposit share missing deposit config")
	}

	if dc.DepositFolder != "notes/projects" {
		t.Errorf("deposit folder = %q, want scope path", dc.DepositFolder)
	}
	// 扩展名归一化为小写带点
	if len(dc.AllowedExtensions) != 2 || dc.AllowedExtensions[0] != ".md" || dc.AllowedExtensions[1] != ".pdf" {
		t.Errorf("allowed extensions = %v", dc.AllowedExtensions)
	}
}

func TestMetadataDistinguishesExpiredFromMissing(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	resp, err := svc.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	if _, err := svc.Metadata(ctx, token); err != nil {
		t.Fatalf("active share metadata: %v", err)
	}

	// 人为过期
	if err := svc.dbc.GetDB().Model(&model.Share{}).Where("token = ?", token).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire share: %v", err)
	}

	if _, err := svc.Metadata(ctx, token); !errors.Is(err, ErrExpired) {
		t.Errorf("expired share err = %v, want ErrExpired", err)
	}

	if _, err := svc.Metadata(ctx, "sh_never-existed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token err = %v, want ErrNotFound", err)
	}

	// GetActive 对过期分享一律 ErrNotFound，区分交给 Metadata/Resolve
	if _, err := svc.GetActive(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetActive on expired err = %v, want ErrNotFound", err)
	}

	if _, err := svc.GetRaw(ctx, token); err != nil {
		t.Errorf("GetRaw on expired err = %v, want nil", err)
	}
}

func TestRevokeShareOwnership(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	resp, err := svc.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	// 非 owner 撤销是 no-op 而非错误
	revoked, err := svc.RevokeShare(ctx, "mallory", token)
	if err != nil || revoked {
		t.Errorf("foreign revoke = (%v, %v), want (false, nil)", revoked, err)
	}

	if _, err := svc.GetActive(ctx, token); err != nil {
		t.Fatalf("share must survive foreign revoke: %v", err)
	}

	revoked, err = svc.RevokeShare(ctx, "alice", token)
	if err != nil || !revoked {
		t.Fatalf("owner revoke = (%v, %v), want (true, nil)", revoked, err)
	}

	if _, err := svc.Metadata(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoked share metadata err = %v, want ErrNotFound", err)
	}

	revoked, err = svc.RevokeShare(ctx, "alice", "sh_unknown")
	if err != nil || revoked {
		t.Errorf("unknown revoke = (%v, %v), want (false, nil)", revoked, err)
	}
}

func TestRecordAccessConcurrent(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	resp, err := svc.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	token := resp.Share.Token

	const n = 50

	var wg sync.WaitGroup

	wg.Add(n)

	for range n {
		go func() {
			defer wg.Done()

			if err := svc.RecordAccess(ctx, token); err != nil {
				t.Errorf("RecordAccess: %v", err)
			}
		}()
	}

	wg.Wait()

	rec, err := svc.GetActive(ctx, token)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}

	// 单条 UPDATE 自增不允许丢计数
	if rec.AccessCount != n {
		t.Errorf("access count = %d, want %d", rec.AccessCount, n)
	}

	if rec.LastAccessedAt == nil {
		t.Error("last accessed at not set")
	}
}

func TestListSharesIncludesExpired(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	first, _ := svc.CreateShare(ctx, "alice", "", readerRequest())

	second, err := svc.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	if err := svc.dbc.GetDB().Model(&model.Share{}).Where("token = ?", first.Share.Token).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire share: %v", err)
	}

	if _, err := svc.CreateShare(ctx, "bob", "", readerRequest()); err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	list, err := svc.ListShares(ctx, "alice")
	if err != nil {
		t.Fatalf("ListShares: %v", err)
	}

	if len(list.Shares) != 2 {
		t.Fatalf("got %d shares, want 2 (expired included)", len(list.Shares))
	}

	for _, sh := range list.Shares {
		if sh.Token != first.Share.Token && sh.Token != second.Share.Token {
			t.Errorf("unexpected share %q in listing", sh.Token)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	svc := newTestShareService(t)
	ctx := context.Background()

	expired, _ := svc.CreateShare(ctx, "alice", "", readerRequest())

	active, err := svc.CreateShare(ctx, "alice", "", readerRequest())
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	if err := svc.dbc.GetDB().Model(&model.Share{}).Where("token = ?", expired.Share.Token).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire share: %v", err)
	}

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}

	if n != 1 {
		t.Errorf("purged %d shares, want 1", n)
	}

	if _, err := svc.GetRaw(ctx, expired.Share.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("purged share still present: %v", err)
	}

	if _, err := svc.GetActive(ctx, active.Share.Token); err != nil {
		t.Errorf("active share must survive purge: %v", err)
	}
}
