package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// unclearMarker is what the model answers when it cannot make out speech.
const unclearMarker = "<|UNCLEAR|>"

// Clip is one recorded utterance.
type Clip struct {
	Data     []byte
	MIMEType string
}

type Recorder interface {
	Record(ctx context.Context) (Clip, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (string, error)
}

// CommandRecorder captures audio by running an external command that writes
// a WAV stream to stdout, e.g. "arecord -d 5 -f cd -t wav -q -".
type CommandRecorder struct {
	name string
	args []string
}

func NewCommandRecorder(command string) (*CommandRecorder, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty record command")
	}
	return &CommandRecorder{name: fields[0], args: fields[1:]}, nil
}

func (r *CommandRecorder) Record(ctx context.Context) (Clip, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.name, r.args...)
	cmd.Stderr = &stderr

	data, err := cmd.Output()
	if err != nil {
		return Clip{}, fmt.Errorf("record audio with %s: %w: %s", r.name, err, strings.TrimSpace(stderr.String()))
	}
	return Clip{Data: data, MIMEType: "audio/wav"}, nil
}

// GeminiTranscriber sends the audio inline to Gemini and returns the lower-cased
// transcript. An empty transcript means the speech could not be understood.
type GeminiTranscriber struct {
	client   *genai.Client
	model    string
	language string
}

func NewGeminiTranscriber(client *genai.Client, model, language string) *GeminiTranscriber {
	return &GeminiTranscriber{client: client, model: model, language: language}
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, clip Clip) (string, error) {
	if len(clip.Data) == 0 {
		return "", nil
	}
	mime := clip.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(clip.Data, mime),
			genai.NewPartFromText(transcribeInstruction(t.language)),
		}, genai.RoleUser),
	}
	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	if resp.UsageMetadata != nil {
		logCost("transcriber", t.model, &schema.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		})
	}
	return cleanTranscript(resp.Text()), nil
}

func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if strings.Contains(text, unclearMarker) {
		return ""
	}
	return strings.ToLower(strings.Trim(text, "\"'."))
}

func logCost(component, modelName string, usage *schema.TokenUsage) {
	inC, outC, total := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Debug().
		Str("component", component).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("input_cost", inC).
		Float64("output_cost", outC).
		Float64("total_cost_usd", total).
		Msg("usage cost")
}
