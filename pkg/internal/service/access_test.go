package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/vaultshare/pkg/internal/model"
	"github.com/yeisme/vaultshare/pkg/internal/ratelimit"
	"github.com/yeisme/vaultshare/pkg/internal/storage/store"
	"github.com/yeisme/vaultshare/pkg/internal/types"
)

// fakeStore 内存版 store.Client，按相对路径存对象.
type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore(paths ...string) *fakeStore {
	fs := &fakeStore{objects: map[string][]byte{}}
	for _, p := range paths {
		fs.objects[p] = []byte("content of " + p)
	}

	return fs
}

func (f *fakeStore) ReadPath(_ context.Context, _ store.Coordinates, relPath string) (*store.Object, error) {
	data, ok := f.objects[relPath]
	if !ok {
		return nil, store.ErrObjectNotFound
	}

	return &store.Object{Data: data, ContentType: "text/markdown", Size: int64(len(data))}, nil
}

func (f *fakeStore) WritePath(_ context.Context, _ store.Coordinates, relPath string, data []byte, _ string) error {
	f.objects[relPath] = data

	return nil
}

func (f *fakeStore) DeletePath(_ context.Context, _ store.Coordinates, relPath string) error {
	delete(f.objects, relPath)

	return nil
}

func (f *fakeStore) ListTree(_ context.Context, _ store.Coordinates, relPrefix string) ([]store.Entry, error) {
	var out []store.Entry

	for p, data := range f.objects {
		if relPrefix == "" || p == relPrefix || len(p) > len(relPrefix) && p[:len(relPrefix)+1] == relPrefix+"/" {
			out = append(out, store.Entry{Path: p, Size: int64(len(data))})
		}
	}

	return out, nil
}

func (f *fakeStore) StatPath(_ context.Context, _ store.Coordinates, relPath string) (*store.Entry, error) {
	data, ok := f.objects[relPath]
	if !ok {
		return nil, store.ErrObjectNotFound
	}

	return &store.Entry{Path: relPath, Size: int64(len(data))}, nil
}

// newTestAccess 构造带固定分享与内存存储的 AccessService.
func newTestAccess(rec *model.ShareRecord, fs *fakeStore, cfg ratelimit.Config) *AccessService {
	svc := &AccessService{
		shares:  &ShareService{},
		limiter: ratelimit.New(cfg),
	}
	svc.resolve = func(_ context.Context, token string, _ *AccessMeta) (*Resolved, error) {
		if token != rec.Token {
			return nil, ErrNotFound
		}

		return &Resolved{Share: rec, Store: fs}, nil
	}

	return svc
}

func readerShare(scopePath string, scopeType types.ScopeType, includeSub bool) *model.ShareRecord {
	return &model.ShareRecord{
		Token:             "sh_test",
		Owner:             "alice",
		ScopeType:         scopeType,
		ScopePath:         scopePath,
		IncludeSubfolders: includeSub,
		Mode:              types.ModeReader,
		ExpiresAt:         time.Now().Add(time.Hour),
	}
}

func TestReadFileScopeEnforced(t *testing.T) {
	fs := newFakeStore("notes/a.md", "notes/sub/b.md", "secrets/key.md")
	svc := newTestAccess(readerShare("notes", types.ScopeFolder, false), fs, ratelimit.Config{})
	ctx := context.Background()

	resp, err := svc.ReadFile(ctx, "sh_test", "notes/a.md", nil)
	if err != nil {
		t.Fatalf("in-scope read: %v", err)
	}

	if string(resp.Content) != "content of notes/a.md" {
		t.Errorf("content = %q", resp.Content)
	}

	denied := []string{
		"notes/sub/b.md",       // 子目录未授权
		"secrets/key.md",       // 范围之外
		"notesextra/c.md",      // 前缀碰撞
		"notes/../secrets/key", // 目录穿越
		"../notes/a.md",
	}
	for _, p := range denied {
		if _, err := svc.ReadFile(ctx, "sh_test", p, nil); !errors.Is(err, ErrForbidden) {
			t.Errorf("ReadFile(%q) err = %v, want ErrForbidden", p, err)
		}
	}

	// 范围内但不存在：NotFound 而非 Forbidden
	if _, err := svc.ReadFile(ctx, "sh_test", "notes/missing.md", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file err = %v, want ErrNotFound", err)
	}

	if _, err := svc.ReadFile(ctx, "sh_unknown", "notes/a.md", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestReadFileNoteScope(t *testing.T) {
	fs := newFakeStore("notes/today.md", "notes/today/nested.md")
	svc := newTestAccess(readerShare("notes/today", types.ScopeNote, false), fs, ratelimit.Config{})
	ctx := context.Background()

	if _, err := svc.ReadFile(ctx, "sh_test", "notes/today.md", nil); err != nil {
		t.Fatalf("note read: %v", err)
	}

	for _, p := range []string{"notes/today/nested.md", "notes/today", "notes/today.md.bak"} {
		if _, err := svc.ReadFile(ctx, "sh_test", p, nil); !errors.Is(err, ErrForbidden) {
			t.Errorf("ReadFile(%q) err = %v, want ErrForbidden", p, err)
		}
	}
}

func TestWriteFileRequiresWriterMode(t *testing.T) {
	fs := newFakeStore()
	rec := readerShare("drafts", types.ScopeFolder, true)
	svc := newTestAccess(rec, fs, ratelimit.Config{})
	ctx := context.Background()

	if err := svc.WriteFile(ctx, "sh_test", "drafts/new.md", []byte("x"), "text/markdown", nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("reader write err = %v, want ErrForbidden", err)
	}

	rec.Mode = types.ModeWriter

	if err := svc.WriteFile(ctx, "sh_test", "drafts/new.md", []byte("x"), "text/markdown", nil); err != nil {
		t.Fatalf("writer write: %v", err)
	}

	if _, ok := fs.objects["drafts/new.md"]; !ok {
		t.Error("written object missing from store")
	}

	if err := svc.WriteFile(ctx, "sh_test", "other/new.md", []byte("x"), "", nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("out-of-scope write err = %v, want ErrForbidden", err)
	}
}

func TestListTreeFiltersScope(t *testing.T) {
	fs := newFakeStore("notes/a.md", "notes/sub/b.md")
	svc := newTestAccess(readerShare("notes", types.ScopeFolder, false), fs, ratelimit.Config{})

	entries, err := svc.ListTree(context.Background(), "sh_test", nil)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}

	for _, e := range entries {
		if e.Path == "notes/sub/b.md" {
			t.Error("subfolder entry leaked with include_subfolders=false")
		}
	}
}

func depositShare(dc *types.DepositConfig) *model.ShareRecord {
	rec := readerShare("inbox", types.ScopeFolder, false)
	rec.Mode = types.ModeDeposit
	rec.Deposit = dc

	return rec
}

func TestDeposit(t *testing.T) {
	fs := newFakeStore("inbox/dup.md")
	dc := &types.DepositConfig{
		MaxFileSize:       64,
		AllowedExtensions: []string{".md"},
		DepositFolder:     "inbox",
	}
	svc := newTestAccess(depositShare(dc), fs, ratelimit.Config{PerIPPerMinute: 10, PerSharePerHour: 100})
	ctx := context.Background()

	files := []DepositFile{
		{Name: "ok.md", Data: []byte("hello")},
		{Name: "dup.md", Data: []byte("collides")},
		{Name: "../../evil.md", Data: []byte("escape attempt")},
		{Name: "virus.exe", Data: []byte("nope")},
		{Name: "huge.md", Data: make([]byte, 100)},
	}

	resp, err := svc.Deposit(ctx, "sh_test", "203.0.113.9", files, nil)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if len(resp.Uploaded) != 3 {
		t.Fatalf("uploaded = %d, want 3: %+v", len(resp.Uploaded), resp)
	}

	// 冲突自动改名
	byName := map[string]string{}
	for _, u := range resp.Uploaded {
		byName[u.Name] = u.StoredPath
	}

	if byName["ok.md"] != "inbox/ok.md" {
		t.Errorf("ok.md stored at %q", byName["ok.md"])
	}

	if byName["dup.md"] != "inbox/dup-1.md" {
		t.Errorf("dup.md stored at %q, want inbox/dup-1.md", byName["dup.md"])
	}
	// 路径穿越的文件名被剥到基础名
	if byName["../../evil.md"] != "inbox/evil.md" {
		t.Errorf("evil.md stored at %q", byName["../../evil.md"])
	}

	if len(resp.Errors) != 2 {
		t.Fatalf("errors = %d, want 2 (extension + size): %+v", len(resp.Errors), resp.Errors)
	}

	if _, ok := fs.objects["inbox/virus.exe"]; ok {
		t.Error("disallowed extension written to store")
	}
}

func TestDepositRateLimited(t *testing.T) {
	fs := newFakeStore()
	dc := &types.DepositConfig{MaxFileSize: 1024, DepositFolder: "inbox"}
	svc := newTestAccess(depositShare(dc), fs, ratelimit.Config{PerIPPerMinute: 2, PerSharePerHour: 100})
	ctx := context.Background()

	files := []DepositFile{
		{Name: "a.md", Data: []byte("1")},
		{Name: "b.md", Data: []byte("2")},
		{Name: "c.md", Data: []byte("3")},
	}

	resp, err := svc.Deposit(ctx, "sh_test", "198.51.100.1", files, nil)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if len(resp.Uploaded) != 2 || len(resp.Errors) != 1 {
		t.Fatalf("partial limit: uploaded=%d errors=%d", len(resp.Uploaded), len(resp.Errors))
	}

	if resp.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", resp.Remaining)
	}

	// 窗口耗尽后整个请求被拒，携带重试时间
	_, err = svc.Deposit(ctx, "sh_test", "198.51.100.1", files[:1], nil)

	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}

	if rle.Scope != "ip" || rle.RetryAfter <= 0 || rle.RetryAfter > time.Minute {
		t.Errorf("rate limit detail = %+v", rle)
	}

	// 其他 IP 不受 per-ip 限制
	if _, err := svc.Deposit(ctx, "sh_test", "198.51.100.2", files[:1], nil); err != nil {
		t.Errorf("different IP blocked: %v", err)
	}

	// 读操作对 deposit 分享一律禁止
	if _, err := svc.ReadFile(ctx, "sh_test", "inbox/a.md", nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("deposit read err = %v, want ErrForbidden", err)
	}
}

func TestDepositValidation(t *testing.T) {
	fs := newFakeStore()
	dc := &types.DepositConfig{MaxFileSize: 1024, DepositFolder: "inbox"}
	svc := newTestAccess(depositShare(dc), fs, ratelimit.Config{PerIPPerMinute: 10, PerSharePerHour: 100})
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, "sh_test", "ip", nil, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("empty deposit err = %v, want ErrValidation", err)
	}

	many := make([]DepositFile, 11)
	for i := range many {
		many[i] = DepositFile{Name: "f.md", Data: []byte("x")}
	}

	if _, err := svc.Deposit(ctx, "sh_test", "ip", many, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("too many files err = %v, want ErrValidation", err)
	}
}
