// Package store 访问分享背后的远端层级存储（S3/MinIO 兼容）。
// 与数据库不同，这里没有进程级单例客户端：每个分享携带自己的加密凭证，
// 解析成功后构造短生命周期客户端执行读写.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound 目标路径在远端不存在.
	ErrObjectNotFound = errors.New("object not found")
	// ErrBadCredential 凭证格式不合法，无法构造客户端.
	ErrBadCredential = errors.New("malformed store credential")
)

// Coordinates 定位一个分享指向的远端仓库位置.
type Coordinates struct {
	RepoOwner string
	RepoName  string
	Branch    string // 空值按 main 处理
	RootPath  string // 仓库内根目录，空值表示整库
}

// Entry 远端树中的一个节点.
type Entry struct {
	// Path 相对 RootPath 的路径
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"is_dir"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// Object 读取到的文件内容.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Client 远端存储操作接口。所有路径参数均为相对 Coordinates.RootPath
// 的规范化路径（由调用方先行校验）.
type Client interface {
	ReadPath(ctx context.Context, coord Coordinates, relPath string) (*Object, error)
	WritePath(ctx context.Context, coord Coordinates, relPath string, data []byte, contentType string) error
	DeletePath(ctx context.Context, coord Coordinates, relPath string) error
	ListTree(ctx context.Context, coord Coordinates, relPrefix string) ([]Entry, error)
	StatPath(ctx context.Context, coord Coordinates, relPath string) (*Entry, error)
}

// Credential 远端存储访问凭证明文形式 "accessKey:secretKey".
type Credential struct {
	AccessKey string
	SecretKey string
}

// ParseCredential 解析明文凭证.
func ParseCredential(plain string) (Credential, error) {
	ak, sk, ok := strings.Cut(plain, ":")
	if !ok || ak == "" || sk == "" {
		return Credential{}, ErrBadCredential
	}

	return Credential{AccessKey: ak, SecretKey: sk}, nil
}

// BucketName 将仓库坐标映射为桶名：前缀 + owner-repo，小写，
// 非法字符替换为 '-'（S3 桶名约束）.
func BucketName(prefix string, coord Coordinates) string {
	raw := strings.ToLower(coord.RepoOwner + "-" + coord.RepoName)
	b := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}

		return '-'
	}, raw)

	return prefix + strings.Trim(b, "-")
}

// ObjectKey 将坐标与相对路径映射为对象键：branch/rootPath/relPath.
func ObjectKey(coord Coordinates, relPath string) string {
	branch := coord.Branch
	if branch == "" {
		branch = "main"
	}

	parts := []string{branch}
	if root := strings.Trim(coord.RootPath, "/"); root != "" {
		parts = append(parts, root)
	}

	if rel := strings.Trim(relPath, "/"); rel != "" {
		parts = append(parts, rel)
	}

	return strings.Join(parts, "/")
}

// RelFromKey 从对象键还原相对路径，是 ObjectKey 的逆操作.
func RelFromKey(coord Coordinates, key string) (string, error) {
	prefix := ObjectKey(coord, "")
	if key == prefix {
		return "", nil
	}

	rel, ok := strings.CutPrefix(key, prefix+"/")
	if !ok {
		return "", fmt.Errorf("key %q outside coordinates prefix %q", key, prefix)
	}

	return rel, nil
}
