package voice

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits against runaway model output
const (
	maxContentLen = 16 * 1024
	maxRecords    = 100
	maxTupleLen   = 1024
	maxErrSnippet = 200
)

// Order is the result of parsing one dictation. Problems lists records that
// could not be turned into order lines; they are shown to the operator.
type Order struct {
	Entries   []model.OrderEntry
	Unmatched []string
	Problems  []string
}

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	parts := strings.SplitN(s[1:len(s)-1], tupDelim, 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return &rawTuple{Type: strings.ToLower(parts[0]), Parts: parts}, nil
}

// ParseOrderResponse reads the model answer into order entries. Malformed
// records are skipped and reported in Order.Problems.
func ParseOrderResponse(content string) (order *Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "order_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("order parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			order = nil
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "order_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	order = &Order{}
	processed := 0
	for _, rec := range strings.Split(content, recDelim) {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		if processed >= maxRecords {
			order.Problems = append(order.Problems, "too many records")
			break
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			order.Problems = append(order.Problems, fmt.Sprintf("bad record: %s", safeSnippet(rec)))
			continue
		}

		switch rt.Type {
		case "item":
			if len(rt.Parts) < 3 {
				order.Problems = append(order.Problems, "item: missing quantity")
				continue
			}
			name := rt.Parts[1]
			if !utf8.ValidString(name) || name == "" {
				order.Problems = append(order.Problems, "item: invalid name")
				continue
			}
			if _, err := billing.ParseQuantity(rt.Parts[2]); err != nil {
				order.Problems = append(order.Problems, fmt.Sprintf("item %s: invalid quantity %q", name, safeSnippet(rt.Parts[2])))
				continue
			}
			order.Entries = append(order.Entries, model.OrderEntry{Token: name, Quantity: rt.Parts[2]})

		case "unmatched":
			if words := rt.Parts[1]; words != "" {
				order.Unmatched = append(order.Unmatched, safeSnippet(words))
			}

		default:
			order.Problems = append(order.Problems, fmt.Sprintf("unknown record type %q", safeSnippet(rt.Type)))
		}
	}
	return order, nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
