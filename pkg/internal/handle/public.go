package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/vaultshare/pkg/internal/service"
	"github.com/yeisme/vaultshare/pkg/log"
)

// accessMeta 从请求头提取访问侧信息。IP 不在其中：只参与限流，不落库.
func accessMeta(c *gin.Context) *service.AccessMeta {
	return &service.AccessMeta{
		UserAgent: c.GetHeader("User-Agent"),
		Referer:   c.GetHeader("Referer"),
		Country:   c.GetHeader("CF-IPCountry"),
		City:      c.GetHeader("X-Geo-City"),
	}
}

func newAccessService(c *gin.Context) *service.AccessService {
	return service.NewAccessService(c.Request.Context(), service.DepositLimiter())
}

// ShareMetadata 公开元数据：404 从未存在、410 已过期.
func ShareMetadata(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	svc := service.NewShareService(c.Request.Context())

	info, err := svc.Metadata(c.Request.Context(), token)
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// ReadSharedFile 通过分享读取单个文件，内容按原始 Content-Type 返回.
func ReadSharedFile(c *gin.Context) {
	token := c.Param("token")
	reqPath := c.Query("path")

	if token == "" || reqPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token or path"})
		return
	}

	resp, err := newAccessService(c).ReadFile(c.Request.Context(), token, reqPath, accessMeta(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("X-Share-Path", resp.Path)
	c.Data(http.StatusOK, contentType, resp.Content)
}

// ListSharedTree 列出分享范围内可见的条目.
func ListSharedTree(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	entries, err := newAccessService(c).ListTree(c.Request.Context(), token, accessMeta(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// WriteSharedFile 写入分享范围内的文件，仅 writer 模式分享可用.
func WriteSharedFile(c *gin.Context) {
	l := log.Logger()

	token := c.Param("token")
	reqPath := c.Query("path")

	if token == "" || reqPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token or path"})
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		l.Warn().Err(err).Msg("read request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})

		return
	}

	err = newAccessService(c).WriteFile(c.Request.Context(), token, reqPath, data, c.ContentType(), accessMeta(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DepositFiles 匿名投递上传：multipart 表单，字段名 files。
// 单个文件失败不影响其余文件，响应逐文件给出结果.
func DepositFiles(c *gin.Context) {
	l := log.Logger()

	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		l.Warn().Err(err).Msg("invalid multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})

		return
	}

	headers := form.File["files"]
	files := make([]service.DepositFile, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			l.Warn().Err(err).Str("name", fh.Filename).Msg("open multipart file")
			continue
		}

		data, err := io.ReadAll(f)

		_ = f.Close()

		if err != nil {
			l.Warn().Err(err).Str("name", fh.Filename).Msg("read multipart file")
			continue
		}

		files = append(files, service.DepositFile{
			Name:        fh.Filename,
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	resp, err := newAccessService(c).Deposit(c.Request.Context(), token, c.ClientIP(), files, accessMeta(c))
	if err != nil {
		writeErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
