// Package assistant runs one citizen turn: deterministic extraction first,
// then the tool-calling exchange with the language model.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/catalog"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/extract"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/history"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/llm"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/tools"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

// DefaultMaxRounds bounds model round trips per citizen turn.
const DefaultMaxRounds = 5

// ErrUpstream is returned when the language model cannot be reached or fails.
var ErrUpstream = errors.New("language model unavailable")

var tracer = otel.Tracer("github.com/Santiagopro2002/Denuncias-gad-api/internal/assistant")

// Config holds engine settings.
type Config struct {
	Model       string
	MaxRounds   int
	MaxTokens   int
	Temperature float64
}

// Engine drives the exchange between the model and the tool dispatcher.
type Engine struct {
	client  llm.Client
	tools   *tools.Dispatcher
	history *history.Builder
	catalog *catalog.Lookup
	cfg     Config
	logger  *logger.Logger
}

// NewEngine creates an engine.
func NewEngine(client llm.Client, dispatcher *tools.Dispatcher, hist *history.Builder, lookup *catalog.Lookup, cfg Config, log *logger.Logger) *Engine {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	return &Engine{
		client:  client,
		tools:   dispatcher,
		history: hist,
		catalog: lookup,
		cfg:     cfg,
		logger:  log,
	}
}

// Turn is a single citizen utterance in a conversation. The utterance must
// already be in the turn log.
type Turn struct {
	CitizenID      string
	ConversationID string
	DraftID        string
	Text           string
}

// Outcome is the result of handling a turn.
type Outcome struct {
	Reply string
	// Complaint is set when the draft was finalized during this turn.
	Complaint *model.Complaint
	FastPath  bool
	Rounds    int
}

// Respond handles one turn. Domain conditions are reported to the model or
// the fast path as tool results; only infrastructure failures return errors.
func (e *Engine) Respond(ctx context.Context, t Turn) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "assistant.respond")
	span.SetAttributes(attribute.String("conversation.id", t.ConversationID))
	defer span.End()

	scope := tools.Scope{CitizenID: t.CitizenID, DraftID: t.DraftID}
	log := e.logger.With(
		zap.String("conversation_id", t.ConversationID),
		zap.String("draft_id", t.DraftID),
	)

	out, err := e.fastPath(ctx, scope, t.Text, log)
	if err == nil && out == nil {
		out, err = e.exchange(ctx, scope, t, log)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("assistant.fast_path", out.FastPath),
		attribute.Int("assistant.rounds", out.Rounds),
	)
	metrics.AssistantRounds.Observe(float64(out.Rounds))
	return out, nil
}

// fastPath applies explicitly labelled fields and, on an exact confirmation
// of a ready draft, finalizes without the model. A nil outcome means the
// model must handle the turn.
func (e *Engine) fastPath(ctx context.Context, scope tools.Scope, text string, log *logger.Logger) (*Outcome, error) {
	var ready bool
	known := false

	if args, ok, err := e.extractedArgs(ctx, text); err != nil {
		return nil, err
	} else if ok {
		res, err := e.tools.Dispatch(ctx, scope, string(tools.UpdateDraft), args)
		if err != nil {
			return nil, err
		}
		if res.Error == "" {
			metrics.FastPathTotal.WithLabelValues("extract").Inc()
			log.Debug("applied extracted fields", zap.Strings("missing", res.Fields.Missing()))
			ready, known = *res.ReadyToSubmit, true
		}
	}

	if !isAffirmative(text) {
		return nil, nil
	}
	if !known {
		res, err := e.tools.Dispatch(ctx, scope, string(tools.ReadDraft), nil)
		if err != nil {
			return nil, err
		}
		ready = res.Error == "" && *res.ReadyToSubmit
	}
	if !ready {
		return nil, nil
	}

	res, err := e.tools.Dispatch(ctx, scope, string(tools.Finalize), json.RawMessage(`{"confirmation":true}`))
	if err != nil {
		return nil, err
	}
	if !res.OK {
		log.Info("fast path finalize declined", zap.String("reason", res.Error))
		return nil, nil
	}

	metrics.FastPathTotal.WithLabelValues("finalize").Inc()
	log.Info("complaint finalized", zap.String("complaint_id", res.ComplaintID), zap.Bool("fast_path", true))
	return &Outcome{Reply: submitted(res.ComplaintID), Complaint: res.Complaint, FastPath: true}, nil
}

// extractedArgs renders the recognised fields as update_draft arguments.
func (e *Engine) extractedArgs(ctx context.Context, text string) (json.RawMessage, bool, error) {
	r := extract.Fields(text)
	if r.Empty() {
		return nil, false, nil
	}

	args := map[string]any{}
	if r.CategoryText != nil {
		id, found, err := e.catalog.Resolve(ctx, *r.CategoryText)
		if err != nil {
			return nil, false, err
		}
		if found {
			args["category_id"] = id
		}
	}
	if r.Description != nil {
		args["description"] = *r.Description
	}
	if r.Reference != nil {
		args["reference"] = *r.Reference
	}
	if r.AddressText != nil {
		args["address_text"] = *r.AddressText
	}
	if r.Latitude != nil {
		args["latitude"] = *r.Latitude
	}
	if r.Longitude != nil {
		args["longitude"] = *r.Longitude
	}
	if len(args) == 0 {
		return nil, false, nil
	}

	b, err := json.Marshal(args)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode extracted fields: %w", err)
	}
	return b, true, nil
}

// exchange runs the model rounds until a plain answer or the round budget.
func (e *Engine) exchange(ctx context.Context, scope tools.Scope, t Turn, log *logger.Logger) (*Outcome, error) {
	msgs, err := e.history.Window(t.ConversationID).Messages(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]llm.Item, 0, len(msgs)+1)
	for _, m := range msgs {
		items = append(items, llm.MessageItem(m.Role, m.Content))
	}
	items = append(items, llm.MessageItem(llm.RoleUser, contextMarker(t.DraftID)))

	ex := e.client.NewExchange(&llm.ExchangeRequest{
		Model:       e.cfg.Model,
		System:      Instructions,
		Tools:       tools.Definitions(),
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})

	out := &Outcome{}
	for out.Rounds < e.cfg.MaxRounds {
		out.Rounds++

		start := time.Now()
		resp, err := ex.Send(ctx, items)
		if err != nil {
			metrics.RecordLLMCall(e.cfg.Model, "error", time.Since(start).Seconds(), 0, 0)
			return e.afterFailure(out, fmt.Errorf("%w: %w", ErrUpstream, err), log)
		}
		metrics.RecordLLMCall(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

		if len(resp.ToolCalls) == 0 {
			out.Reply = strings.TrimSpace(resp.Content)
			if out.Reply == "" {
				out.Reply = defaultReply(out)
			}
			return out, nil
		}

		items = make([]llm.Item, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res, err := e.tools.Dispatch(ctx, scope, call.Name, json.RawMessage(call.Arguments))
			if err != nil {
				return e.afterFailure(out, err, log)
			}
			if res.Complaint != nil {
				out.Complaint = res.Complaint
				log.Info("complaint finalized", zap.String("complaint_id", res.ComplaintID), zap.Bool("fast_path", false))
			}
			log.Debug("tool executed",
				zap.String("tool", call.Name),
				zap.Int("round", out.Rounds),
				zap.String("error", res.Error),
			)
			items = append(items, llm.OutputItem(call.ID, res.JSON()))
		}
	}

	log.Warn("round budget exhausted", zap.Int("rounds", out.Rounds))
	out.Reply = defaultReply(out)
	return out, nil
}

// afterFailure keeps a complaint committed in an earlier round: the turn
// succeeds with the submission reply instead of surfacing err.
func (e *Engine) afterFailure(out *Outcome, err error, log *logger.Logger) (*Outcome, error) {
	if out.Complaint == nil {
		return nil, err
	}
	log.Warn("exchange failed after finalize", zap.Error(err), zap.String("complaint_id", out.Complaint.ID))
	out.Reply = submitted(out.Complaint.ID)
	return out, nil
}

func defaultReply(out *Outcome) string {
	if out.Complaint != nil {
		return submitted(out.Complaint.ID)
	}
	return FallbackReply
}
