package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle of a backend task. Transitions only move forward:
// pending -> running -> completed | failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task types issued by the backend.
const (
	TaskTypeGenerate   = "generate"
	TaskTypeTranscribe = "transcribe"
)

// Task is a backend task record. The backend owns all mutation; the client
// only reads it, except for the explicit result override via UpdateTaskResult.
type Task struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Params          map[string]any  `json:"params"`
	OutputAudioPath string          `json:"output_audio_path"`
	Result          json.RawMessage `json:"result"`
	ErrorMessage    string          `json:"error_message"`
	ProjectID       string          `json:"project_id,omitempty"`
}

// ResultText extracts the "text" field from a transcription result, or the
// raw JSON when the result is not an object.
func (t *Task) ResultText() string {
	if len(t.Result) == 0 {
		return ""
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(t.Result, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	return string(t.Result)
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Items []Task `json:"items"`
	Total int    `json:"total"`
}

// TaskFilter narrows ListTasks. Zero values are omitted from the query.
type TaskFilter struct {
	Page      int
	PageSize  int
	Status    Status
	Type      string
	ProjectID string
}

// GenerateRequest creates a music generation task.
type GenerateRequest struct {
	Lyrics           string  `json:"lyrics"`
	Tags             string  `json:"tags"`
	MaxAudioLengthMS int     `json:"max_audio_length_ms,omitempty"`
	TopK             int     `json:"topk,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	CFGScale         float64 `json:"cfg_scale,omitempty"`
	Version          string  `json:"version,omitempty"`
	ProjectID        string  `json:"project_id,omitempty"`
	RefFileID        string  `json:"ref_file_id,omitempty"`
}

// Generation parameter bounds enforced before submission.
const (
	MinTopK             = 1
	MaxTopK             = 200
	MinCFGScale         = 1.0
	MaxCFGScale         = 3.0
	MinAudioLengthMS    = 8000
	MaxAudioLengthMS    = 600000
	DefaultTopK         = 50
	DefaultTemperature  = 1.0
	DefaultCFGScale     = 1.5
	DefaultAudioLength  = 240000
	DefaultModelVersion = "3B"
)

// Validate checks generation parameters against the documented ranges.
// Zero-valued optionals are allowed; the backend applies its defaults.
func (r GenerateRequest) Validate() error {
	if r.Lyrics == "" {
		return fmt.Errorf("generate: lyrics required")
	}
	if r.Tags == "" {
		return fmt.Errorf("generate: tags required")
	}
	if r.TopK != 0 && (r.TopK < MinTopK || r.TopK > MaxTopK) {
		return fmt.Errorf("generate: topk %d out of range [%d, %d]", r.TopK, MinTopK, MaxTopK)
	}
	if r.CFGScale != 0 && (r.CFGScale < MinCFGScale || r.CFGScale > MaxCFGScale) {
		return fmt.Errorf("generate: cfg_scale %.2f out of range [%.1f, %.1f]", r.CFGScale, MinCFGScale, MaxCFGScale)
	}
	if r.MaxAudioLengthMS != 0 && (r.MaxAudioLengthMS < MinAudioLengthMS || r.MaxAudioLengthMS > MaxAudioLengthMS) {
		return fmt.Errorf("generate: max_audio_length_ms %d out of range [%d, %d]", r.MaxAudioLengthMS, MinAudioLengthMS, MaxAudioLengthMS)
	}
	return nil
}

// TranscribeParams are the decoding parameters for a transcription task.
// Zero value means "use DefaultTranscribeParams" field-by-field when encoded.
type TranscribeParams struct {
	MaxNewTokens              int
	NumBeams                  int
	Task                      string
	ConditionOnPrevTokens     bool
	CompressionRatioThreshold float64
	LogprobThreshold          float64
	NoSpeechThreshold         float64
}

// DefaultTranscribeParams mirrors the backend form defaults.
func DefaultTranscribeParams() TranscribeParams {
	return TranscribeParams{
		MaxNewTokens:              256,
		NumBeams:                  2,
		Task:                      "transcribe",
		ConditionOnPrevTokens:     false,
		CompressionRatioThreshold: 1.8,
		LogprobThreshold:          -1.0,
		NoSpeechThreshold:         0.4,
	}
}

// LyricsRequest asks the backend LLM for structured lyrics.
type LyricsRequest struct {
	Language string `json:"language"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Topic    string `json:"topic,omitempty"`
}

// Project is a backend project record grouping generated tracks.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	Tags      []string  `json:"tags"`
	Duration  string    `json:"duration"`
	Status    string    `json:"status"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Items []Project `json:"items"`
	Total int       `json:"total"`
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Page     int
	PageSize int
	Search   string
	Genre    string
	Status   string
}

// ProjectCreate is the request body for a new project.
type ProjectCreate struct {
	Title  string   `json:"title"`
	Genre  string   `json:"genre,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Status string   `json:"status,omitempty"`
	Color  string   `json:"color,omitempty"`
}

// ProjectUpdate carries partial project updates; nil fields are omitted.
type ProjectUpdate struct {
	Title    *string  `json:"title,omitempty"`
	Genre    *string  `json:"genre,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Duration *string  `json:"duration,omitempty"`
	Status   *string  `json:"status,omitempty"`
	Color    *string  `json:"color,omitempty"`
}

// Upload describes a stored reference audio file.
type Upload struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Share is a public share link for a completed task.
type Share struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Title     string `json:"title,omitempty"`
	CreatedAt string `json:"created_at"`
	ViewCount int    `json:"view_count"`
	Task      *Task  `json:"task,omitempty"`
}

// User is the authenticated account returned by /auth/me.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// DefaultModels is the checkpoint list used when GET /models is unavailable.
var DefaultModels = []string{
	"HeartMula-Pro-4B (v2.1)",
	"HeartMula-Fast-2B",
	"HeartCodec-Studio-HQ",
	"HeartMula-3B (Standard)",
}
