package pathscope_test

import (
	"testing"

	"github.com/yeisme/vaultshare/pkg/internal/pathscope"
)

// TestNormalize 测试路径归一化：分隔符统一、重复折叠、首尾去除。
func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"a/b/c", "a/b/c"},
		{"/a/b/c/", "a/b/c"},
		{"a//b///c", "a/b/c"},
		{"a\\b\\c", "a/b/c"},
		{"\\a\\\\b/", "a/b"},
	}

	for _, c := range cases {
		if got := pathscope.Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestValidateTraversal 测试 ".." 段必须被拒绝。
func TestValidateTraversal(t *testing.T) {
	if pathscope.Validate("a/../../etc/passwd", "a", true, pathscope.ScopeFolder) {
		t.Error("expected traversal path to be rejected")
	}

	if pathscope.Validate("..", "", true, pathscope.ScopeFolder) {
		t.Error("expected bare .. to be rejected")
	}

	if pathscope.Validate("notes/../notes/file.md", "notes", true, pathscope.ScopeFolder) {
		t.Error("expected path with .. segment to be rejected even when it would resolve in scope")
	}
}

// TestValidateRootScope 测试空 scope 即根分享，任意合法路径可见。
func TestValidateRootScope(t *testing.T) {
	if !pathscope.Validate("any/deep/path.md", "", true, pathscope.ScopeFolder) {
		t.Error("expected root scope to allow any path")
	}
}

// TestValidateFolderScope 测试 folder 范围的边界感知前缀匹配。
func TestValidateFolderScope(t *testing.T) {
	cases := []struct {
		path    string
		scope   string
		subs    bool
		allowed bool
	}{
		{"notes/file.md", "notes", true, true},
		{"notes", "notes", true, true},
		{"notes/sub/f.md", "notes", true, true},
		{"notes/sub/f.md", "notes", false, false},
		{"notes/f.md", "notes", false, true},
		// 边界感知：同前缀的兄弟目录不得放行
		{"notesextra/f.md", "notes", true, false},
		{"notesextra", "notes", true, false},
		{"other/f.md", "notes", true, false},
	}

	for _, c := range cases {
		got := pathscope.Validate(c.path, c.scope, c.subs, pathscope.ScopeFolder)
		if got != c.allowed {
			t.Errorf("Validate(%q, %q, %v) = %v, want %v", c.path, c.scope, c.subs, got, c.allowed)
		}
	}
}

// TestValidateNoteScope 测试 note 范围仅精确匹配 scope+扩展名，且与 includeSubfolders 无关。
func TestValidateNoteScope(t *testing.T) {
	if !pathscope.Validate("journal/today.md", "journal/today", false, pathscope.ScopeNote) {
		t.Error("expected exact note path to be allowed")
	}

	if !pathscope.Validate("journal/today.md", "journal/today", true, pathscope.ScopeNote) {
		t.Error("expected includeSubfolders to be irrelevant for note scope")
	}

	if pathscope.Validate("journal/today.md.bak", "journal/today", false, pathscope.ScopeNote) {
		t.Error("expected non-exact note path to be rejected")
	}

	if pathscope.Validate("journal/other.md", "journal/today", false, pathscope.ScopeNote) {
		t.Error("expected sibling note to be rejected")
	}
}

// TestRelativePathRoundTrip 测试 BuildFullPath 与 GetRelativePath 的往返性质。
func TestRelativePathRoundTrip(t *testing.T) {
	paths := []string{
		"notes/a.md",
		"notes/sub/deep/b.md",
		"notes",
		"/notes//c.md",
	}

	for _, p := range paths {
		rel := pathscope.GetRelativePath(p, "notes")
		if got := pathscope.BuildFullPath("notes", rel); got != pathscope.Normalize(p) {
			t.Errorf("round trip for %q: got %q, want %q", p, got, pathscope.Normalize(p))
		}
	}

	// 根范围下同样成立
	if got := pathscope.BuildFullPath("", pathscope.GetRelativePath("x/y", "")); got != "x/y" {
		t.Errorf("root scope round trip: got %q", got)
	}
}

// TestIsDirectChild 测试直接子项判断。
func TestIsDirectChild(t *testing.T) {
	if !pathscope.IsDirectChild("notes/a.md", "notes") {
		t.Error("expected notes/a.md to be a direct child of notes")
	}

	if pathscope.IsDirectChild("notes/sub/a.md", "notes") {
		t.Error("expected notes/sub/a.md not to be a direct child of notes")
	}

	if pathscope.IsDirectChild("notes", "notes") {
		t.Error("expected scope itself not to be its own child")
	}
}
