package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"snapopedia-cli/internal/api"
	"snapopedia-cli/internal/model"
	"snapopedia-cli/internal/terminal"
)

var snapCmd = &cobra.Command{
	Use:   "snap <image|->",
	Short: "为一张照片生成卡片",
	Long: `上传一张照片并生成卡片，可以接着提出若干问题。

示例：
  snapopedia snap leaf.jpg --lens "Nature Watch"
  snapopedia snap leaf.jpg --ask "What is it?" --ask "Where does it grow?"
  cat leaf.jpg | snapopedia snap - --format json

进度输出到 stderr，结果输出到 stdout。`,
	Args:          cobra.ExactArgs(1),
	RunE:          runSnap,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	snapCmd.Flags().StringP("lens", "l", "", "讲解视角")
	snapCmd.Flags().StringArrayP("ask", "a", nil, "生成后追问的问题，可重复")
	snapCmd.Flags().StringP("format", "f", "text", "输出格式: text | json | yaml")
	snapCmd.Flags().Bool("no-audio", false, "追问时不需要语音回答")
	rootCmd.AddCommand(snapCmd)
}

// snapResult 一次 snap 的输出
type snapResult struct {
	ImageURL       string        `json:"image_url" yaml:"image_url"`
	UserPreference string        `json:"user_preference,omitempty" yaml:"user_preference,omitempty"`
	Card           *model.Card   `json:"card" yaml:"card"`
	ConversationID string        `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	Chat           []snapMessage `json:"chat,omitempty" yaml:"chat,omitempty"`
}

type snapMessage struct {
	Role     model.Role          `json:"role" yaml:"role"`
	Content  string              `json:"content" yaml:"content"`
	AudioURL string              `json:"audio_url,omitempty" yaml:"audio_url,omitempty"`
	Status   model.MessageStatus `json:"status" yaml:"status"`
}

func runSnap(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q", format)
	}
	lens, _ := cmd.Flags().GetString("lens")
	questions, _ := cmd.Flags().GetStringArray("ask")
	noAudio, _ := cmd.Flags().GetBool("no-audio")

	file, err := readImage(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	a := newApp()
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.generation.OnChange(terminal.NewRenderer(os.Stderr).Render)
	a.generation.SetPreference(lens)
	if noAudio {
		a.chat.SetNeedAudio(false)
	}

	if err := a.generation.Submit(ctx, file); err != nil {
		return fmt.Errorf("%s", api.Message(err, "Generation failed, please retry."))
	}

	var failed error
	for _, q := range questions {
		if err := a.chat.Send(ctx, q); err != nil {
			a.logger.WithError(err).Warn("question failed")
			failed = fmt.Errorf("%s", api.Message(err, "Chat request failed."))
		}
	}

	if err := writeSnapResult(cmd.OutOrStdout(), format, buildSnapResult(a)); err != nil {
		return err
	}
	return failed
}

func buildSnapResult(a *app) snapResult {
	snap := a.store.Snapshot()
	res := snapResult{
		ImageURL:       snap.ImageURL,
		UserPreference: snap.UserPreference,
		Card:           snap.Card,
		ConversationID: snap.ConversationID,
	}
	for _, m := range snap.ChatHistory {
		res.Chat = append(res.Chat, snapMessage{
			Role:     m.Role,
			Content:  m.Content,
			AudioURL: m.AudioURL,
			Status:   m.Status,
		})
	}
	return res
}

// readImage 读取图片文件，"-" 表示 stdin
func readImage(path string, stdin io.Reader) (api.ImageFile, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return api.ImageFile{}, fmt.Errorf("read stdin: %w", err)
		}
		return api.ImageFile{Name: "stdin", Data: data}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return api.ImageFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return api.ImageFile{Name: filepath.Base(path), Data: data}, nil
}

func writeSnapResult(w io.Writer, format string, res snapResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	}

	card := res.Card
	fmt.Fprintln(w, card.Title)
	fmt.Fprintf(w, "  %s\n", card.Subject())
	if img := card.DisplayImage(res.ImageURL); img != "" {
		fmt.Fprintf(w, "  Image: %s\n", img)
	}
	if card.HasNarration() {
		fmt.Fprintf(w, "  Narration: %s\n", card.AudioURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, card.Desc)
	for _, m := range res.Chat {
		fmt.Fprintln(w)
		prefix := "Q:"
		if m.Role == model.RoleAssistant {
			prefix = "A:"
		}
		line := prefix + " " + m.Content
		if m.Status == model.StatusFailed {
			line += " (failed)"
		}
		fmt.Fprintln(w, line)
		if m.AudioURL != "" {
			fmt.Fprintf(w, "   ♪ %s\n", m.AudioURL)
		}
	}
	return nil
}
