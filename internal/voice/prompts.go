package voice

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/vijaylaxmi/flourmill/internal/model"
)

//go:embed template/order_prompt.txt
var orderSystemPrompt string

// Catalog and utterance are filled by the chat template at invoke time;
// only the fixed delimiters are substituted up front.
func orderSystemText() string {
	return strings.NewReplacer(
		"{TD}", tupDelim,
		"{RD}", recDelim,
		"{CD}", endDelim,
	).Replace(orderSystemPrompt)
}

// newOrderTemplate builds the chat template used by the dictation chain.
func newOrderTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(orderSystemText()),
		schema.UserMessage("{utterance}"),
	)
}

// catalogListing renders the catalog as the numbered list the model sees.
func catalogListing(entries []model.CatalogEntry) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderOrderPrompt formats the full prompt for an utterance; used by the
// dictate command to show what the model will see.
func RenderOrderPrompt(ctx context.Context, entries []model.CatalogEntry, utterance string) ([]*schema.Message, error) {
	msgs, err := newOrderTemplate().Format(ctx, orderVariables(entries, utterance))
	if err != nil {
		return nil, fmt.Errorf("order prompt: %w", err)
	}
	return msgs, nil
}

func orderVariables(entries []model.CatalogEntry, utterance string) map[string]any {
	return map[string]any{
		"catalog":   catalogListing(entries),
		"utterance": utterance,
	}
}

func transcribeInstruction(language string) string {
	if language == "" {
		language = "en-IN"
	}
	return fmt.Sprintf("Transcribe this short recording made at a shop counter. "+
		"The speaker uses language %s and may mix Hindi and English. "+
		"Reply with the spoken words only, no punctuation or commentary. "+
		"If nothing intelligible was said, reply exactly %s.", language, unclearMarker)
}
