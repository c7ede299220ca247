package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the HeartMula backend REST API. All heavy work (synthesis,
// transcription, lyrics inference) happens behind these endpoints; the client
// only submits, polls, and reads.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource supplies the bearer token for authenticated calls. An empty
// return value sends the request unauthenticated.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient builds a client for the given base URL (for example
// "http://localhost:10001/api"). Trailing slashes are stripped so joined
// paths never double up.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(data), Op: op}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, op, method, path, body, "application/json", out)
}

// errorDetail pulls the backend's {"detail": ...} field out of an error body,
// falling back to the raw body text.
func errorDetail(data []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}

type taskCreateResponse struct {
	TaskID string `json:"task_id"`
}

// Generate submits a music generation task and returns its id. The job runs
// asynchronously; pass the id to AwaitTask to wait for completion.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var resp taskCreateResponse
	if err := c.doJSON(ctx, "create generate task", http.MethodPost, "/tasks/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// Transcribe uploads an audio file and submits a transcription task.
func (c *Client) Transcribe(ctx context.Context, audioPath string, params TranscribeParams) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("create transcribe task: %w", err)
	}
	defer f.Close()
	return c.TranscribeReader(ctx, filepath.Base(audioPath), f, params)
}

// TranscribeReader is Transcribe for an already-open stream.
func (c *Client) TranscribeReader(ctx context.Context, filename string, audio io.Reader, params TranscribeParams) (string, error) {
	const op = "create transcribe task"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("%s: read audio: %w", op, err)
	}

	fields := map[string]string{
		"max_new_tokens":              strconv.Itoa(params.MaxNewTokens),
		"num_beams":                   strconv.Itoa(params.NumBeams),
		"task":                        params.Task,
		"condition_on_prev_tokens":    strconv.FormatBool(params.ConditionOnPrevTokens),
		"compression_ratio_threshold": formatFloat(params.CompressionRatioThreshold),
		"logprob_threshold":           formatFloat(params.LogprobThreshold),
		"no_speech_threshold":         formatFloat(params.NoSpeechThreshold),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp taskCreateResponse
	if err := c.do(ctx, op, http.MethodPost, "/tasks/transcribe", &buf, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// GetTask fetches one task record by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, "get task", http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, "", &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks fetches one page of tasks matching the filter.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) (*TaskPage, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.ProjectID != "" {
		q.Set("project_id", filter.ProjectID)
	}
	path := "/tasks"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var page TaskPage
	if err := c.do(ctx, "list tasks", http.MethodGet, path, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateTaskResult overrides a task's result payload. This is the explicit
// hand-edit path (for example a corrected transcript), not a status
// transition; the backend leaves the status untouched.
func (c *Client) UpdateTaskResult(ctx context.Context, taskID string, result any) (*Task, error) {
	body := map[string]any{"result": result}
	var task Task
	if err := c.doJSON(ctx, "update task result", http.MethodPatch, "/tasks/"+url.PathEscape(taskID), body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AudioURL returns the URL for a task's generated audio. The stream is
// fetched lazily by whoever plays or downloads it, never eagerly.
func (c *Client) AudioURL(taskID string) string {
	return c.baseURL + "/tasks/" + url.PathEscape(taskID) + "/audio"
}

// DownloadAudio streams a task's generated audio into w.
func (c *Client) DownloadAudio(ctx context.Context, taskID string, w io.Writer) error {
	const op = "download audio"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AudioURL(taskID), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(data), Op: op}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GenerateLyrics asks the backend LLM for structured lyrics.
func (c *Client) GenerateLyrics(ctx context.Context, req LyricsRequest) (string, error) {
	var resp struct {
		Lyrics string `json:"lyrics"`
	}
	if err := c.doJSON(ctx, "generate lyrics", http.MethodPost, "/lyrics/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Lyrics, nil
}

// ListModels returns the available model checkpoints. Any failure falls back
// to the built-in list so the studio always has something to offer.
func (c *Client) ListModels(ctx context.Context) []string {
	var models []string
	if err := c.do(ctx, "list models", http.MethodGet, "/models", nil, "", &models); err != nil || len(models) == 0 {
		return DefaultModels
	}
	return models
}

// ListProjects fetches one page of projects matching the filter.
func (c *Client) ListProjects(ctx context.Context, filter ProjectFilter) (*ProjectPage, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Genre != "" {
		q.Set("genre", filter.Genre)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	path := "/projects"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var page ProjectPage
	if err := c.do(ctx, "list projects", http.MethodGet, path, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var p Project
	if err := c.do(ctx, "get project", http.MethodGet, "/projects/"+url.PathEscape(projectID), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, req ProjectCreate) (*Project, error) {
	var p Project
	if err := c.doJSON(ctx, "create project", http.MethodPost, "/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, projectID string, req ProjectUpdate) (*Project, error) {
	var p Project
	if err := c.doJSON(ctx, "update project", http.MethodPatch, "/projects/"+url.PathEscape(projectID), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.do(ctx, "delete project", http.MethodDelete, "/projects/"+url.PathEscape(projectID), nil, "", nil)
}

// UploadReferenceAudio uploads a reference audio file for style conditioning.
func (c *Client) UploadReferenceAudio(ctx context.Context, audioPath string) (*Upload, error) {
	const op = "upload reference audio"
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("%s: read audio: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var up Upload
	if err := c.do(ctx, op, http.MethodPost, "/uploads/audio", &buf, mw.FormDataContentType(), &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// DeleteUpload removes a previously uploaded reference file.
func (c *Client) DeleteUpload(ctx context.Context, fileID string) error {
	return c.do(ctx, "delete upload", http.MethodDelete, "/uploads/"+url.PathEscape(fileID), nil, "", nil)
}

// CreateShare publishes a share link for a task.
func (c *Client) CreateShare(ctx context.Context, taskID, title string) (*Share, error) {
	body := map[string]any{"task_id": taskID}
	if title != "" {
		body["title"] = title
	}
	var sh Share
	if err := c.doJSON(ctx, "create share", http.MethodPost, "/shares", body, &sh); err != nil {
		return nil, err
	}
	return &sh, nil
}

// GetShare fetches a share record, including the embedded task.
func (c *Client) GetShare(ctx context.Context, shareID string) (*Share, error) {
	var sh Share
	if err := c.do(ctx, "get share", http.MethodGet, "/shares/"+url.PathEscape(shareID), nil, "", &sh); err != nil {
		return nil, err
	}
	return &sh, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, "get current user", http.MethodGet, "/auth/me", nil, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, "", nil)
}
