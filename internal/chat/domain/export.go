package domain

const (
	// ExportQueueName rabbitmq queue of transcript exports
	ExportQueueName = "chat_export"
)

// ExportStatus job state
type ExportStatus string

const (
	// ExportPending queued
	ExportPending ExportStatus = "pending"
	// ExportDone transcript uploaded
	ExportDone ExportStatus = "done"
	// ExportFailed worker gave up
	ExportFailed ExportStatus = "failed"
)

// ExportJob 聊天紀錄匯出工作
type ExportJob struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chat_id"`
	RequestedBy string       `json:"requested_by"`
	Status      ExportStatus `json:"status"`
	ObjectName  string       `json:"object_name,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   int64        `json:"created_at"`
	UpdatedAt   int64        `json:"updated_at"`
	// DownloadURL presigned, filled on read only
	DownloadURL string `json:"download_url,omitempty"`
}

// Transcript exported object body
type Transcript struct {
	Session    ChatSession   `json:"session"`
	Messages   []ChatMessage `json:"messages"`
	ExportedAt int64         `json:"exported_at"`
}
