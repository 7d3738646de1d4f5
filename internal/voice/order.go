package voice

import (
	"context"
	"fmt"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// OrderParser turns a dictated order into order entries with a
// prompt -> chat model chain.
type OrderParser struct {
	runnable  compose.Runnable[map[string]any, *schema.Message]
	catalog   []model.CatalogEntry
	modelName string
	handler   einocb.Handler
}

func NewOrderParser(ctx context.Context, cm einomodel.BaseChatModel, modelName string, catalog []model.CatalogEntry) (*OrderParser, error) {
	chain := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(newOrderTemplate(), compose.WithNodeName("order_prompt")).
		AppendChatModel(cm, compose.WithNodeName("order_model"))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile order chain: %w", err)
	}
	return &OrderParser{
		runnable:  runnable,
		catalog:   append([]model.CatalogEntry(nil), catalog...),
		modelName: modelName,
		handler:   NewCallbacks(),
	}, nil
}

// Parse sends the utterance to the model and parses its answer.
func (p *OrderParser) Parse(ctx context.Context, utterance string) (*Order, error) {
	out, err := p.runnable.Invoke(ctx, orderVariables(p.catalog, utterance), compose.WithCallbacks(p.handler))
	if err != nil {
		return nil, fmt.Errorf("parse dictated order: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("parse dictated order: empty model answer")
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		logCost("order_parser", p.modelName, out.ResponseMeta.Usage)
	}

	order, err := ParseOrderResponse(out.Content)
	if err != nil {
		return nil, err
	}
	if len(order.Problems) > 0 {
		logx.Warn().Str("component", "order_parser").Strs("problems", order.Problems).Msg("malformed order records")
	}
	return order, nil
}
