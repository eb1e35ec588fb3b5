package types

// ReadFileResponse 通过分享读取单个文件的响应体.
type ReadFileResponse struct {
	Path        string `json:"path"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
}

// DepositUploadedItem 单个成功上传的文件.
type DepositUploadedItem struct {
	// Name 客户端提交的文件名
	Name string `json:"name"`
	// StoredPath 实际写入路径（冲突时自动改名）
	StoredPath string `json:"stored_path"`
	Size       int64  `json:"size"`
}

// DepositErrorItem 单个被拒绝的文件及原因.
type DepositErrorItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// DepositUploadResponse 投递上传的响应体.
type DepositUploadResponse struct {
	Uploaded []DepositUploadedItem `json:"uploaded"`
	Errors   []DepositErrorItem    `json:"errors"`
	// Remaining 本窗口内还可上传的单元数
	Remaining int `json:"remaining"`
}
