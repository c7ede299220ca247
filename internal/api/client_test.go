package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSubmitsPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks/generate", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task_id":"abc123"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL+"/", WithTokenSource(func() string { return "tok-1" }))
	id, err := client.Generate(context.Background(), GenerateRequest{
		Lyrics:      "[Verse]\nhello",
		Tags:        "electronic, dark",
		TopK:        50,
		Temperature: 1.0,
		CFGScale:    1.5,
	})
	require.NoError(t, err)
	require.Equal(t, "abc123", id)
	require.Equal(t, "Bearer tok-1", auth)
	require.Equal(t, "electronic, dark", got["tags"])
	require.EqualValues(t, 50, got["topk"])
}

func TestGenerateValidatesRanges(t *testing.T) {
	t.Parallel()

	client := NewClient("http://unused.invalid")
	ctx := context.Background()

	cases := []GenerateRequest{
		{Tags: "x"},                                      // missing lyrics
		{Lyrics: "x"},                                    // missing tags
		{Lyrics: "x", Tags: "y", TopK: 201},              // topk above range
		{Lyrics: "x", Tags: "y", CFGScale: 0.5},          // cfg_scale below range
		{Lyrics: "x", Tags: "y", MaxAudioLengthMS: 4000}, // too short
	}
	for _, req := range cases {
		_, err := client.Generate(ctx, req)
		require.Error(t, err, "request %+v must be rejected before hitting the network", req)
	}
}

func TestTranscribeSendsMultipart(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "256", r.FormValue("max_new_tokens"))
		require.Equal(t, "2", r.FormValue("num_beams"))
		require.Equal(t, "transcribe", r.FormValue("task"))
		require.Equal(t, "1.8", r.FormValue("compression_ratio_threshold"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "take1.wav", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "RIFFfake", string(data))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task_id":"tr-9"}`))
	}))
	defer ts.Close()

	dir := t.TempDir()
	audioPath := filepath.Join(dir, "take1.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFFfake"), 0o600))

	client := NewClient(ts.URL)
	id, err := client.Transcribe(context.Background(), audioPath, DefaultTranscribeParams())
	require.NoError(t, err)
	require.Equal(t, "tr-9", id)
}

func TestListTasksBuildsQuery(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "20", q.Get("page_size"))
		require.Equal(t, "completed", q.Get("status"))
		require.Equal(t, "generate", q.Get("type"))
		require.Equal(t, "p-1", q.Get("project_id"))
		_, _ = w.Write([]byte(`{"items":[{"id":"a","status":"completed"}],"total":41}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	page, err := client.ListTasks(context.Background(), TaskFilter{
		Page: 2, PageSize: 20, Status: StatusCompleted, Type: TaskTypeGenerate, ProjectID: "p-1",
	})
	require.NoError(t, err)
	require.Equal(t, 41, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, StatusCompleted, page.Items[0].Status)
}

func TestUpdateTaskResultPatches(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/tasks/tr-9", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		result, ok := body["result"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "corrected text", result["text"])
		_, _ = w.Write([]byte(`{"id":"tr-9","status":"completed","result":{"text":"corrected text"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	task, err := client.UpdateTaskResult(context.Background(), "tr-9", map[string]string{"text": "corrected text"})
	require.NoError(t, err)
	require.Equal(t, "corrected text", task.ResultText())
	// The override is not a status transition.
	require.Equal(t, StatusCompleted, task.Status)
}

func TestAPIErrorCarriesBackendDetail(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Task not found"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	_, err := client.GetTask(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "Task not found", apiErr.Detail)
	require.Contains(t, apiErr.Error(), "Task not found")
}

func TestListModelsFallsBack(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	models := client.ListModels(context.Background())
	require.Equal(t, DefaultModels, models)
}

func TestGenerateLyrics(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lyrics/generate", r.URL.Path)
		var req LyricsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "en", req.Language)
		require.Equal(t, "Electronic", req.Genre)
		_, _ = w.Write([]byte(`{"lyrics":"[Verse]\nneon rivers"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	lyrics, err := client.GenerateLyrics(context.Background(), LyricsRequest{Language: "en", Genre: "Electronic", Mood: "Dark"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(lyrics, "[Verse]"))
}

func TestLoginAndAuthenticatedFlow(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"access_token":"jwt-abc"}`))
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer jwt-abc" {
				http.Error(w, `{"detail":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","username":"mula"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	token := ""
	client := NewClient(ts.URL, WithTokenSource(func() string { return token }))

	tok, err := client.Login(context.Background(), "mula", "secret")
	require.NoError(t, err)
	token = tok

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "mula", user.Username)
}

func TestDownloadAudioStreams(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/abc123/audio", r.URL.Path)
		_, _ = w.Write([]byte("binary-audio-bytes"))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	var buf strings.Builder
	require.NoError(t, client.DownloadAudio(context.Background(), "abc123", &buf))
	require.Equal(t, "binary-audio-bytes", buf.String())
}

func TestNetworkErrorPropagates(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1") // nothing listens here
	_, err := client.GetTask(context.Background(), "x")
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr), "transport failures are not APIErrors")
}
