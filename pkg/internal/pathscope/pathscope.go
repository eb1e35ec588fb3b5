// Package pathscope 提供分享范围的纯路径校验：归一化、越界检测与范围内相对路径计算。
// 所有函数均为纯函数，不做任何 I/O。
package pathscope

import "strings"

// NoteExtension 笔记分享对应的文件扩展名。
const NoteExtension = ".md"

// ScopeType 分享范围类型。
type ScopeType string

const (
	ScopeFolder ScopeType = "folder"
	ScopeNote   ScopeType = "note"
)

// Normalize 统一路径分隔符为 '/'，折叠重复分隔符，去除首尾分隔符。
func Normalize(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")

	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	return strings.Trim(p, "/")
}

// Validate 判断 requestedPath 是否落在 scopePath 声明的范围内。
//
// 规则（按顺序短路）：
//  1. 归一化后的请求路径包含 ".." 段 → 拒绝；
//  2. scopePath 为空表示根分享，整库可见 → 允许；
//  3. note 范围仅允许 scopePath + 笔记扩展名的精确匹配，忽略 includeSubfolders；
//  4. folder 范围要求边界感知的前缀匹配：等于 scopePath，或以 scopePath+"/" 开头。
//     朴素的字符串前缀判断会把 "notesextra/x" 误判进 "notes" 范围，这里必须带边界；
//  5. includeSubfolders=false 时，剥掉范围前缀后的剩余部分不得再含分隔符（仅直接子项可见）。
func Validate(requestedPath, scopePath string, includeSubfolders bool, scopeType ScopeType) bool {
	req := Normalize(requestedPath)
	if containsDotDot(req) {
		return false
	}

	scope := Normalize(scopePath)
	if scope == "" {
		return true
	}

	if scopeType == ScopeNote {
		return req == scope+NoteExtension
	}

	if req != scope && !strings.HasPrefix(req, scope+"/") {
		return false
	}

	if !includeSubfolders {
		rest := strings.TrimPrefix(strings.TrimPrefix(req, scope), "/")
		if strings.Contains(rest, "/") {
			return false
		}
	}

	return true
}

// GetRelativePath 返回 path 相对 scopePath 的路径；path 不在范围内时原样返回归一化结果。
func GetRelativePath(path, scopePath string) string {
	p := Normalize(path)

	scope := Normalize(scopePath)
	if scope == "" {
		return p
	}

	if p == scope {
		return ""
	}

	if strings.HasPrefix(p, scope+"/") {
		return p[len(scope)+1:]
	}

	return p
}

// IsDirectChild 判断 path 是否是 scopePath 的直接子项（恰好一层）。
func IsDirectChild(path, scopePath string) bool {
	rel := GetRelativePath(path, scopePath)
	return rel != "" && !strings.Contains(rel, "/")
}

// BuildFullPath 拼接范围路径与相对路径。
// 对任意范围内的 p 满足 BuildFullPath(scope, GetRelativePath(p, scope)) == Normalize(p)。
func BuildFullPath(scopePath, relativePath string) string {
	scope := Normalize(scopePath)
	rel := Normalize(relativePath)

	switch {
	case scope == "":
		return rel
	case rel == "":
		return scope
	default:
		return scope + "/" + rel
	}
}

// containsDotDot 检查归一化路径中是否存在 ".." 段。
func containsDotDot(normalized string) bool {
	if normalized == ".." {
		return true
	}

	for _, seg := range strings.Split(normalized, "/") {
		if seg == ".." {
			return true
		}
	}

	return false
}
