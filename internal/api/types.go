package api

import "github.com/gorewood/echopost/internal/attach"

// Ack is the generic {success, message} reply.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UploadResponse reports which images were stored. Success with a
// non-empty Errors list is a partial success.
type UploadResponse struct {
	Success bool                `json:"success"`
	Images  []attach.Attachment `json:"images"`
	Errors  []string            `json:"errors"`
	Message string              `json:"message,omitempty"`
}

// PublishRequest is the body of an immediate publish.
type PublishRequest struct {
	Content    string   `json:"content"`
	Platforms  []string `json:"platforms"`
	ImagePaths []string `json:"image_paths"`
}

// PublishResponse acknowledges a publish. JobID is empty when the
// submission was refused.
type PublishResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

// ScheduleRequest is a publish request with a future time (RFC 3339).
type ScheduleRequest struct {
	PublishRequest
	ScheduledAt string `json:"scheduled_at"`
}

// JobStatus is the server-side state of a publish job.
type JobStatus string

// Job statuses.
const (
	StatusRunning   JobStatus = "running"
	StatusDone      JobStatus = "done"
	StatusError     JobStatus = "error"
	StatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether polling should stop at this status.
func (s JobStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusError || s == StatusCancelled
}

// Step is one line of a job's progress log.
type Step struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

// Job is the server's view of a publish job. Success is meaningful only
// when Status is done.
type Job struct {
	Status  JobStatus `json:"status"`
	Success bool      `json:"success"`
	Steps   []Step    `json:"steps"`
	Message string    `json:"message"`
}

// StatusResponse wraps a job snapshot. Job is nil when Success is false,
// for example once the server has forgotten the job.
type StatusResponse struct {
	Success bool   `json:"success"`
	Job     *Job   `json:"job"`
	Message string `json:"message,omitempty"`
}

// RefineResponse carries AI-rewritten content.
type RefineResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// HashtagResponse carries suggested hashtags.
type HashtagResponse struct {
	Hashtags []string `json:"hashtags"`
}

// HistoryPost is one published post kept by the server.
type HistoryPost struct {
	ID             int      `json:"id"`
	Content        string   `json:"content"`
	Platforms      string   `json:"platforms"`
	TwitterSuccess bool     `json:"twitter_success"`
	ZhihuSuccess   bool     `json:"zhihu_success"`
	ImagePaths     []string `json:"image_paths"`
	CreatedAt      string   `json:"created_at"`
}

// HistoryPage is one page of publish history, newest first.
type HistoryPage struct {
	Posts       []HistoryPost `json:"posts"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}
