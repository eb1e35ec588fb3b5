package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/vaultshare/pkg/configs"
	nlog "github.com/yeisme/vaultshare/pkg/log"
)

// MinioClient 基于 MinIO SDK 的 Client 实现.
// 一个实例绑定一份凭证，由分享解析流程按需创建.
type MinioClient struct {
	cli *minio.Client
	cfg configs.StoreConfig
}

// Dial 用解密后的凭证构造客户端。不在这里探测桶是否存在，
// 留给首个操作按需失败，避免解析元数据也要打一次远端.
func Dial(cfg configs.StoreConfig, cred Credential) (*MinioClient, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cred.AccessKey, cred.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("vaultshare", configs.AppVersion)

	return &MinioClient{cli: cli, cfg: cfg}, nil
}

// ReadPath 读取单个对象.
func (c *MinioClient) ReadPath(ctx context.Context, coord Coordinates, relPath string) (*Object, error) {
	bucket := BucketName(c.cfg.BucketPrefix, coord)
	key := ObjectKey(coord, relPath)

	obj, err := c.cli.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	defer func() { _ = obj.Close() }()

	stat, err := obj.Stat()
	if err != nil {
		return nil, mapMinioErr(err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, key, err)
	}

	return &Object{
		Data:        data,
		ContentType: stat.ContentType,
		Size:        stat.Size,
	}, nil
}

// WritePath 写入单个对象，已存在则覆盖.
func (c *MinioClient) WritePath(ctx context.Context, coord Coordinates, relPath string, data []byte, contentType string) error {
	bucket := BucketName(c.cfg.BucketPrefix, coord)
	key := ObjectKey(coord, relPath)

	_, err := c.cli.PutObject(ctx, bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return mapMinioErr(err)
	}

	nlog.Logger().Debug().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("object written")

	return nil
}

// DeletePath 删除单个对象.
func (c *MinioClient) DeletePath(ctx context.Context, coord Coordinates, relPath string) error {
	bucket := BucketName(c.cfg.BucketPrefix, coord)
	key := ObjectKey(coord, relPath)

	if err := c.cli.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapMinioErr(err)
	}

	return nil
}

// ListTree 递归列出前缀下的全部对象。目录由对象键推导（对象存储无真实目录）.
func (c *MinioClient) ListTree(ctx context.Context, coord Coordinates, relPrefix string) ([]Entry, error) {
	bucket := BucketName(c.cfg.BucketPrefix, coord)
	prefix := ObjectKey(coord, relPrefix)
	if prefix != "" {
		prefix += "/"
	}

	var entries []Entry

	seenDirs := map[string]struct{}{}

	for info := range c.cli.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, mapMinioErr(info.Err)
		}

		rel, err := RelFromKey(coord, info.Key)
		if err != nil {
			continue // 前缀之外的键不应出现，跳过
		}

		// 为中间目录补充 IsDir 条目
		for dir := rel; ; {
			idx := strings.LastIndexByte(dir, '/')
			if idx < 0 {
				break
			}

			dir = dir[:idx]
			if _, ok := seenDirs[dir]; ok {
				break
			}

			seenDirs[dir] = struct{}{}
			entries = append(entries, Entry{Path: dir, IsDir: true})
		}

		entries = append(entries, Entry{
			Path:    rel,
			Size:    info.Size,
			ModTime: info.LastModified,
		})
	}

	return entries, nil
}

// StatPath 查询单个对象的元信息.
func (c *MinioClient) StatPath(ctx context.Context, coord Coordinates, relPath string) (*Entry, error) {
	bucket := BucketName(c.cfg.BucketPrefix, coord)
	key := ObjectKey(coord, relPath)

	info, err := c.cli.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapMinioErr(err)
	}

	rel, err := RelFromKey(coord, info.Key)
	if err != nil {
		rel = relPath
	}

	return &Entry{Path: rel, Size: info.Size, ModTime: info.LastModified}, nil
}

// mapMinioErr 将 MinIO 错误归一化，NoSuchKey/NoSuchBucket 映射为 ErrObjectNotFound.
func mapMinioErr(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, resp.Key)
		}
	}

	return err
}
