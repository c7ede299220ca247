package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dolphinheart/mulastudio/internal/api"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		lyricsFile string
		tags       string
		topK       int
		temp       float64
		cfgScale   float64
		maxMS      int
		version    string
		projectID  string
		refFileID  string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit a music generation task",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			lyrics, err := os.ReadFile(lyricsFile)
			if err != nil {
				return fmt.Errorf("read lyrics: %w", err)
			}
			req := api.GenerateRequest{
				Lyrics:           string(lyrics),
				Tags:             tags,
				TopK:             topK,
				Temperature:      temp,
				CFGScale:         cfgScale,
				MaxAudioLengthMS: maxMS,
				Version:          version,
				ProjectID:        projectID,
				RefFileID:        refFileID,
			}
			if err := req.Validate(); err != nil {
				return err
			}
			taskID, err := client.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskID)
			if !wait {
				return nil
			}
			return waitAndReport(cmd, ctx, taskID)
		},
	}

	cmd.Flags().StringVar(&lyricsFile, "lyrics", "", "Path to a lyrics text file (required)")
	cmd.Flags().StringVar(&tags, "tags", "", "Style tags, comma separated (required)")
	cmd.Flags().IntVar(&topK, "topk", api.DefaultTopK, "Sampling top-k")
	cmd.Flags().Float64Var(&temp, "temperature", api.DefaultTemperature, "Sampling temperature")
	cmd.Flags().Float64Var(&cfgScale, "cfg-scale", api.DefaultCFGScale, "Classifier-free guidance scale")
	cmd.Flags().IntVar(&maxMS, "max-ms", api.DefaultAudioLength, "Maximum audio length in milliseconds")
	cmd.Flags().StringVar(&version, "version", api.DefaultModelVersion, "Model version")
	cmd.Flags().StringVar(&projectID, "project", "", "Project id to attach the track to")
	cmd.Flags().StringVar(&refFileID, "ref-file", "", "Uploaded reference audio file id")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the task finishes")
	_ = cmd.MarkFlagRequired("lyrics")
	_ = cmd.MarkFlagRequired("tags")

	return cmd
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		maxNewTokens int
		numBeams     int
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Submit an audio file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			params := api.DefaultTranscribeParams()
			params.MaxNewTokens = maxNewTokens
			params.NumBeams = numBeams
			taskID, err := client.Transcribe(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskID)
			if !wait {
				return nil
			}
			return waitAndReport(cmd, ctx, taskID)
		},
	}

	cmd.Flags().IntVar(&maxNewTokens, "max-new-tokens", 256, "Decoder token budget")
	cmd.Flags().IntVar(&numBeams, "beams", 2, "Beam search width")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the task finishes")

	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Display one task record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			task, err := client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(cmd, client, task)
			return nil
		},
	}
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var attempts int

	cmd := &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Poll a task until it finishes, printing each status change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			last := api.Status("")
			task, err := client.AwaitTask(cmd.Context(), args[0], api.PollOptions{
				Interval:    interval,
				MaxAttempts: attempts,
				OnStatus: func(t *api.Task) {
					if t.Status != last {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", time.Now().Format("15:04:05"), t.Status)
						last = t.Status
					}
				},
			})
			if err != nil {
				return err
			}
			printTask(cmd, client, task)
			if task.Status == api.StatusFailed {
				return fmt.Errorf("task failed: %s", task.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", api.DefaultPollInterval, "Delay between polls")
	cmd.Flags().IntVar(&attempts, "attempts", api.DefaultPollAttempts, "Maximum number of polls")

	return cmd
}

func newEditResultCommand(ctx *commandContext) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "edit-result <task-id>",
		Short: "Overwrite the stored transcript of a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			task, err := client.UpdateTaskResult(cmd.Context(), args[0], map[string]string{"text": text})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.ResultText())
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Replacement transcript text (required)")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download <task-id>",
		Short: "Download the generated audio of a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".mp3"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := client.DownloadAudio(cmd.Context(), args[0], f); err != nil {
				os.Remove(out)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (defaults to <task-id>.mp3)")

	return cmd
}

func waitAndReport(cmd *cobra.Command, ctx *commandContext, taskID string) error {
	client, err := ctx.ensureClient()
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	task, err := client.AwaitTask(cmd.Context(), taskID, api.PollOptions{
		Interval:    cfg.Poll.Interval,
		MaxAttempts: cfg.Poll.MaxAttempts,
	})
	if err != nil {
		return err
	}
	printTask(cmd, client, task)
	if task.Status == api.StatusFailed {
		return fmt.Errorf("task failed: %s", task.ErrorMessage)
	}
	return nil
}

func printTask(cmd *cobra.Command, client *api.Client, task *api.Task) {
	rows := [][]string{
		{"id", task.ID},
		{"type", task.Type},
		{"status", string(task.Status)},
		{"created", task.CreatedAt.Format(time.RFC3339)},
		{"updated", task.UpdatedAt.Format(time.RFC3339)},
	}
	if task.Status == api.StatusCompleted {
		if task.Type == api.TaskTypeGenerate {
			rows = append(rows, []string{"audio", client.AudioURL(task.ID)})
		}
		if text := strings.TrimSpace(task.ResultText()); text != "" {
			rows = append(rows, []string{"result", text})
		}
	}
	if task.ErrorMessage != "" {
		rows = append(rows, []string{"error", task.ErrorMessage})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
}
