// Package tools exposes the backend operations the model can call while
// completing a complaint draft.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/catalog"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/draft"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/llm"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

// Name identifies a tool.
type Name string

// The closed set of tools. Adding a tool means adding a constant, a case in
// Dispatch and an entry in Definitions.
const (
	ListCategories Name = "list_categories"
	ReadDraft      Name = "read_draft"
	UpdateDraft    Name = "update_draft"
	Finalize       Name = "finalize"
)

// Error tags returned inside results.
const (
	ErrTagDraftNotFound   = "draft_not_found"
	ErrTagNotConfirmed    = "not_confirmed"
	ErrTagDraftIncomplete = "draft_incomplete"
	ErrTagUnknownTool     = "unknown_tool"
)

var tracer = otel.Tracer("github.com/Santiagopro2002/Denuncias-gad-api/internal/tools")

// Scope identifies who is calling and which draft the conversation owns.
type Scope struct {
	CitizenID string
	DraftID   string
}

// CategoryItem is a catalog entry as shown to the model.
type CategoryItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Result is the JSON-serialisable outcome of a tool call. Domain failures are
// reported through Error, never as Go errors.
type Result struct {
	Error         string             `json:"error,omitempty"`
	OK            bool               `json:"ok,omitempty"`
	Updated       bool               `json:"updated,omitempty"`
	DraftID       string             `json:"draft_id,omitempty"`
	Fields        *model.DraftFields `json:"fields,omitempty"`
	ReadyToSubmit *bool              `json:"ready_to_submit,omitempty"`
	Missing       []string           `json:"missing,omitempty"`
	ComplaintID   string             `json:"complaint_id,omitempty"`
	Categories    []CategoryItem     `json:"categories,omitempty"`

	// Complaint is set when finalize created a complaint.
	Complaint *model.Complaint `json:"-"`
}

// JSON renders the result for the model.
func (r *Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"error":"internal"}`
	}
	return string(b)
}

func outcome(r *Result) string {
	if r.Error != "" {
		return r.Error
	}
	return "ok"
}

// Dispatcher executes tools against the catalog and the draft service.
type Dispatcher struct {
	catalog *catalog.Lookup
	drafts  *draft.Service
}

// NewDispatcher creates a tool dispatcher.
func NewDispatcher(lookup *catalog.Lookup, drafts *draft.Service) *Dispatcher {
	return &Dispatcher{catalog: lookup, drafts: drafts}
}

// Dispatch runs the named tool. Only infrastructure failures are returned as
// errors.
func (d *Dispatcher) Dispatch(ctx context.Context, scope Scope, name string, args json.RawMessage) (*Result, error) {
	ctx, span := tracer.Start(ctx, "tools.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("tool.name", name)),
	)
	defer span.End()

	var (
		res *Result
		err error
	)
	switch Name(name) {
	case ListCategories:
		res, err = d.listCategories(ctx)
	case ReadDraft:
		var a draftArgs
		decodeArgs(args, &a)
		res, err = d.readDraft(ctx, scope, a)
	case UpdateDraft:
		var a updateArgs
		decodeArgs(args, &a)
		res, err = d.updateDraft(ctx, scope, a)
	case Finalize:
		var a finalizeArgs
		decodeArgs(args, &a)
		res, err = d.finalize(ctx, scope, a)
	default:
		res = &Result{Error: ErrTagUnknownTool}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordToolCall(name, "failure")
		return nil, err
	}
	span.SetAttributes(attribute.String("tool.outcome", outcome(res)))
	metrics.RecordToolCall(name, outcome(res))
	return res, nil
}

// resolveDraftID prefers an explicit id and falls back to the conversation's
// draft. Malformed ids are reported as missing drafts.
func resolveDraftID(scope Scope, explicit string) (string, bool) {
	id := explicit
	if id == "" {
		id = scope.DraftID
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (d *Dispatcher) listCategories(ctx context.Context) (*Result, error) {
	cats, err := d.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]CategoryItem, 0, len(cats))
	for _, c := range cats {
		items = append(items, CategoryItem{ID: c.ID, Name: c.Name})
	}
	return &Result{Categories: items}, nil
}

func draftResult(dr *model.Draft) *Result {
	fields := dr.Fields
	ready := dr.ReadyToSubmit
	return &Result{DraftID: dr.ID, Fields: &fields, ReadyToSubmit: &ready}
}

func (d *Dispatcher) readDraft(ctx context.Context, scope Scope, a draftArgs) (*Result, error) {
	id, ok := resolveDraftID(scope, a.DraftID)
	if !ok {
		return &Result{Error: ErrTagDraftNotFound}, nil
	}
	dr, err := d.drafts.Get(ctx, id, scope.CitizenID)
	if errors.Is(err, draft.ErrNotFound) {
		return &Result{Error: ErrTagDraftNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return draftResult(dr), nil
}

// toUpdate converts tool arguments into a draft update. Category names are
// resolved through the catalog; unknown or inactive category ids and
// unparseable or out-of-range values are dropped.
func (d *Dispatcher) toUpdate(ctx context.Context, a updateArgs) (model.DraftFields, error) {
	var f model.DraftFields
	if id, ok := a.CategoryID.int64(); ok {
		active, err := d.catalog.Active(ctx, id)
		if err != nil {
			return f, err
		}
		if active {
			f.CategoryID = &id
		}
	} else if a.CategoryID != nil && a.CategoryID.text != "" {
		id, found, err := d.catalog.Resolve(ctx, a.CategoryID.text)
		if err != nil {
			return f, err
		}
		if found {
			f.CategoryID = &id
		}
	}
	f.Description = a.Description
	f.Reference = a.Reference
	f.AddressText = a.AddressText
	if lat, ok := a.Latitude.within(90); ok {
		f.Latitude = &lat
	}
	if lng, ok := a.Longitude.within(180); ok {
		f.Longitude = &lng
	}
	return f, nil
}

func (d *Dispatcher) updateDraft(ctx context.Context, scope Scope, a updateArgs) (*Result, error) {
	id, ok := resolveDraftID(scope, a.DraftID)
	if !ok {
		return &Result{Error: ErrTagDraftNotFound}, nil
	}
	update, err := d.toUpdate(ctx, a)
	if err != nil {
		return nil, err
	}
	dr, err := d.drafts.Merge(ctx, id, scope.CitizenID, update)
	if errors.Is(err, draft.ErrNotFound) {
		return &Result{Error: ErrTagDraftNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	res := draftResult(dr)
	res.Updated = true
	return res, nil
}

func (d *Dispatcher) finalize(ctx context.Context, scope Scope, a finalizeArgs) (*Result, error) {
	if !bool(a.Confirmation) {
		return &Result{Error: ErrTagNotConfirmed}, nil
	}
	id, ok := resolveDraftID(scope, a.DraftID)
	if !ok {
		return &Result{Error: ErrTagDraftNotFound}, nil
	}

	fr, err := d.drafts.Finalize(ctx, id, scope.CitizenID, true)
	if err != nil {
		return nil, err
	}

	switch fr.Status {
	case draft.StatusFinalized:
		metrics.ComplaintsTotal.WithLabelValues(model.OriginChat).Inc()
		return &Result{OK: true, ComplaintID: fr.Complaint.ID, Complaint: fr.Complaint}, nil
	case draft.StatusIncomplete:
		fields := fr.Fields
		return &Result{Error: ErrTagDraftIncomplete, Fields: &fields, Missing: fr.Missing}, nil
	case draft.StatusNotConfirmed:
		return &Result{Error: ErrTagNotConfirmed}, nil
	case draft.StatusNotFound:
		return &Result{Error: ErrTagDraftNotFound}, nil
	default:
		return nil, fmt.Errorf("unexpected finalize status %q", fr.Status)
	}
}

// Definitions returns the tool catalog offered to the model.
func Definitions() []llm.Tool {
	draftID := map[string]any{"type": "string", "description": "UUID del borrador"}
	return []llm.Tool{
		{
			Name:        string(ListCategories),
			Description: "Devuelve los tipos de denuncia disponibles (id, nombre).",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        string(ReadDraft),
			Description: "Devuelve el borrador actual para verificar qué campos faltan.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"draft_id": draftID},
				"required":   []string{"draft_id"},
			},
		},
		{
			Name:        string(UpdateDraft),
			Description: "Actualiza parcialmente el borrador (category_id, description, reference, latitude, longitude, address_text).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"draft_id":     draftID,
					"category_id":  map[string]any{"type": "integer"},
					"description":  map[string]any{"type": "string"},
					"reference":    map[string]any{"type": "string"},
					"latitude":     map[string]any{"type": "number"},
					"longitude":    map[string]any{"type": "number"},
					"address_text": map[string]any{"type": "string"},
				},
				"required": []string{"draft_id"},
			},
		},
		{
			Name:        string(Finalize),
			Description: "Crea la denuncia a partir del borrador completo y devuelve complaint_id. Solo tras la confirmación explícita del ciudadano.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"draft_id": draftID,
					"confirmation": map[string]any{
						"type":        "boolean",
						"description": "true solo si el ciudadano ya confirmó que desea enviar la denuncia.",
					},
				},
				"required": []string{"draft_id", "confirmation"},
			},
		},
	}
}
