package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"zenstudio/internal/audiogen"
	"zenstudio/internal/navigation"
	"zenstudio/internal/rewrite"
	"zenstudio/internal/services"
	"zenstudio/internal/story"
)

type ListSegmentsInput struct{}

type GetSegmentInput struct {
	ID string `json:"id" jsonschema:"segment id"`
}

type CreateSegmentInput struct {
	Text  string `json:"text,omitempty" jsonschema:"narration text"`
	Mood  string `json:"mood,omitempty" jsonschema:"mood label such as Calm or Dark"`
	Kind  string `json:"kind,omitempty" jsonschema:"beginning, narration, choice or ending"`
	Image string `json:"image,omitempty" jsonschema:"image URI"`
}

type UpdateSegmentInput struct {
	ID    string  `json:"id" jsonschema:"segment id"`
	Text  *string `json:"text,omitempty" jsonschema:"replacement text"`
	Mood  *string `json:"mood,omitempty" jsonschema:"replacement mood"`
	Kind  *string `json:"kind,omitempty" jsonschema:"replacement kind"`
	Image *string `json:"image,omitempty" jsonschema:"replacement image URI"`
}

type DeleteSegmentInput struct {
	ID string `json:"id" jsonschema:"segment id"`
}

type MoveSegmentInput struct {
	From int `json:"from" jsonschema:"current display index"`
	To   int `json:"to" jsonschema:"target display index"`
}

type SelectSegmentInput struct {
	ID string `json:"id" jsonschema:"segment id"`
}

type NavigateInput struct {
	Direction string `json:"direction" jsonschema:"next or previous"`
}

type GenerateAudioInput struct {
	ID      string `json:"id" jsonschema:"segment id"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"regenerate even if audio is cached"`
}

type RewriteSegmentInput struct {
	ID   string `json:"id" jsonschema:"segment id"`
	Mood string `json:"mood,omitempty" jsonschema:"mood to rewrite towards; defaults to the segment mood"`
}

type SetVariableInput struct {
	Name  string `json:"name" jsonschema:"variable name"`
	Value string `json:"value" jsonschema:"value; true/false and numbers are typed automatically"`
}

type BranchOutput struct {
	Target    string `json:"target"`
	Condition string `json:"condition,omitempty"`
}

type SegmentOutput struct {
	ID                string         `json:"id"`
	Index             int            `json:"index"`
	Kind              string         `json:"kind"`
	Text              string         `json:"text"`
	Mood              string         `json:"mood"`
	EstimatedDuration string         `json:"estimated_duration"`
	Image             string         `json:"image,omitempty"`
	Audio             string         `json:"audio,omitempty"`
	Branches          []BranchOutput `json:"branches"`
	Active            bool           `json:"active"`
}

type ListSegmentsOutput struct {
	Segments []SegmentOutput `json:"segments"`
}

type MutationOutput struct {
	ID       string `json:"id,omitempty"`
	ActiveID string `json:"active_id"`
	Count    int    `json:"count"`
}

type NavigateOutput struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Via   string `json:"via"`
	Moved bool   `json:"moved"`
}

type AudioOutput struct {
	ID           string `json:"id"`
	Outcome      string `json:"outcome"`
	URI          string `json:"uri,omitempty"`
	FallbackText string `json:"fallback_text,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

type RewriteOutput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Mood string `json:"mood"`
}

type VariableOutput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_segments",
		Description: "List story segments in display order",
	}, s.handleListSegments)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_segment",
		Description: "Retrieve a single segment",
	}, s.handleGetSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_segment",
		Description: "Append a new segment and select it",
	}, s.handleCreateSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_segment",
		Description: "Change text, mood, kind or image of a segment",
	}, s.handleUpdateSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_segment",
		Description: "Delete a segment",
	}, s.handleDeleteSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "move_segment",
		Description: "Move a segment to another display position",
	}, s.handleMoveSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_segment",
		Description: "Make a segment the active selection",
	}, s.handleSelectSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "navigate",
		Description: "Advance or go back from the active segment, following branches",
	}, s.handleNavigate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_audio",
		Description: "Ensure a segment has narration audio",
	}, s.handleGenerateAudio)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "rewrite_segment",
		Description: "Rewrite a segment's text to match a mood",
	}, s.handleRewriteSegment)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "set_variable",
		Description: "Set a story variable used by branch conditions",
	}, s.handleSetVariable)
}

func (s *Server) handleListSegments(ctx context.Context, req *sdk.CallToolRequest, input ListSegmentsInput) (*sdk.CallToolResult, ListSegmentsOutput, error) {
	snap := s.session.Graph().Snapshot()
	out := make([]SegmentOutput, 0, len(snap.Story.Order))
	for idx, seg := range snap.Story.Ordered() {
		out = append(out, segmentOutput(seg, idx, snap.ActiveID))
	}
	return nil, ListSegmentsOutput{Segments: out}, nil
}

func (s *Server) handleGetSegment(ctx context.Context, req *sdk.CallToolRequest, input GetSegmentInput) (*sdk.CallToolResult, SegmentOutput, error) {
	if input.ID == "" {
		return nil, SegmentOutput{}, fmt.Errorf("id is required")
	}
	snap := s.session.Graph().Snapshot()
	seg, ok := snap.Story.Segments[input.ID]
	if !ok {
		return nil, SegmentOutput{}, fmt.Errorf("segment %q not found", input.ID)
	}
	return nil, segmentOutput(seg, snap.Story.IndexOf(input.ID), snap.ActiveID), nil
}

func (s *Server) handleCreateSegment(ctx context.Context, req *sdk.CallToolRequest, input CreateSegmentInput) (*sdk.CallToolResult, MutationOutput, error) {
	var kind *story.Kind
	if input.Kind != "" {
		parsed, err := story.ParseKind(input.Kind)
		if err != nil {
			return nil, MutationOutput{}, err
		}
		kind = &parsed
	}

	g := s.session.Graph()
	var id string
	if strings.TrimSpace(input.Text) != "" {
		id = g.CreateFromIngested(story.Ingested{Text: input.Text, Mood: input.Mood, ImageURI: input.Image})
		if kind != nil {
			g.Update(id, story.Patch{Kind: kind})
		}
	} else {
		p := story.Patch{Kind: kind}
		if input.Mood != "" {
			p.Source = &story.SourcePatch{Mood: story.Ptr(story.NormalizeMood(input.Mood, input.Mood))}
		}
		if input.Image != "" {
			p.Assets = &story.AssetsPatch{Image: story.Ptr(input.Image)}
		}
		id = g.Create(p)
	}
	return nil, s.mutation(id), nil
}

func (s *Server) handleUpdateSegment(ctx context.Context, req *sdk.CallToolRequest, input UpdateSegmentInput) (*sdk.CallToolResult, MutationOutput, error) {
	if input.ID == "" {
		return nil, MutationOutput{}, fmt.Errorf("id is required")
	}
	p := story.Patch{Text: input.Text}
	if input.Kind != nil {
		kind, err := story.ParseKind(*input.Kind)
		if err != nil {
			return nil, MutationOutput{}, err
		}
		p.Kind = &kind
	}
	if input.Mood != nil {
		p.Source = &story.SourcePatch{Mood: input.Mood}
	}
	if input.Image != nil {
		p.Assets = &story.AssetsPatch{Image: input.Image}
	}
	if !s.session.Graph().Update(input.ID, p) {
		return nil, MutationOutput{}, fmt.Errorf("segment %q not found", input.ID)
	}
	return nil, s.mutation(input.ID), nil
}

func (s *Server) handleDeleteSegment(ctx context.Context, req *sdk.CallToolRequest, input DeleteSegmentInput) (*sdk.CallToolResult, MutationOutput, error) {
	if input.ID == "" {
		return nil, MutationOutput{}, fmt.Errorf("id is required")
	}
	if !s.session.Graph().Delete(input.ID) {
		return nil, MutationOutput{}, fmt.Errorf("segment %q not found", input.ID)
	}
	return nil, s.mutation(input.ID), nil
}

func (s *Server) handleMoveSegment(ctx context.Context, req *sdk.CallToolRequest, input MoveSegmentInput) (*sdk.CallToolResult, MutationOutput, error) {
	if err := s.session.Graph().Reorder(input.From, input.To); err != nil {
		return nil, MutationOutput{}, err
	}
	return nil, s.mutation(""), nil
}

func (s *Server) handleSelectSegment(ctx context.Context, req *sdk.CallToolRequest, input SelectSegmentInput) (*sdk.CallToolResult, MutationOutput, error) {
	if !s.session.Graph().Select(input.ID) {
		return nil, MutationOutput{}, fmt.Errorf("segment %q not found", input.ID)
	}
	return nil, s.mutation(input.ID), nil
}

func (s *Server) handleNavigate(ctx context.Context, req *sdk.CallToolRequest, input NavigateInput) (*sdk.CallToolResult, NavigateOutput, error) {
	var move navigation.Move
	switch strings.ToLower(strings.TrimSpace(input.Direction)) {
	case "", "next", "forward":
		move = s.session.Navigator().Next()
	case "previous", "prev", "back":
		move = s.session.Navigator().Previous()
	default:
		return nil, NavigateOutput{}, fmt.Errorf("direction must be next or previous, got %q", input.Direction)
	}
	return nil, NavigateOutput{From: move.From, To: move.To, Via: string(move.Via), Moved: move.Moved()}, nil
}

func (s *Server) handleGenerateAudio(ctx context.Context, req *sdk.CallToolRequest, input GenerateAudioInput) (*sdk.CallToolResult, AudioOutput, error) {
	if input.ID == "" {
		return nil, AudioOutput{}, fmt.Errorf("id is required")
	}
	res := s.session.Audio().EnsureAudio(withRequestID(ctx), input.ID, audiogen.Options{Refresh: input.Refresh})
	out := AudioOutput{
		ID:           input.ID,
		Outcome:      string(res.Outcome),
		URI:          res.URI,
		FallbackText: res.FallbackText,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		out.ErrorKind = services.Kind(res.Err)
	}
	return nil, out, nil
}

func (s *Server) handleRewriteSegment(ctx context.Context, req *sdk.CallToolRequest, input RewriteSegmentInput) (*sdk.CallToolResult, RewriteOutput, error) {
	if input.ID == "" {
		return nil, RewriteOutput{}, fmt.Errorf("id is required")
	}
	if err := s.session.Rewriter().Rewrite(withRequestID(ctx), input.ID, rewrite.Options{Mood: input.Mood}); err != nil {
		return nil, RewriteOutput{}, err
	}
	seg, ok := s.session.Graph().Segment(input.ID)
	if !ok {
		return nil, RewriteOutput{}, errors.New("segment removed after rewrite")
	}
	return nil, RewriteOutput{ID: seg.ID, Text: seg.Text, Mood: seg.Source.Mood}, nil
}

func (s *Server) handleSetVariable(ctx context.Context, req *sdk.CallToolRequest, input SetVariableInput) (*sdk.CallToolResult, VariableOutput, error) {
	value := story.ParseValue(input.Value)
	if err := s.session.Graph().SetVariable(input.Name, value); err != nil {
		return nil, VariableOutput{}, err
	}
	return nil, VariableOutput{Name: input.Name, Type: value.Type().String(), Value: value.Interface()}, nil
}

func (s *Server) mutation(id string) MutationOutput {
	active, _ := s.session.Graph().Active()
	return MutationOutput{ID: id, ActiveID: active, Count: s.session.Graph().Len()}
}

func segmentOutput(seg story.Segment, index int, active string) SegmentOutput {
	branches := make([]BranchOutput, 0, len(seg.Branches))
	for _, b := range seg.Branches {
		branches = append(branches, BranchOutput{Target: b.Target, Condition: b.Condition})
	}
	return SegmentOutput{
		ID:                seg.ID,
		Index:             index,
		Kind:              string(seg.Kind),
		Text:              seg.Text,
		Mood:              seg.Source.Mood,
		EstimatedDuration: seg.Source.EstimatedDuration,
		Image:             seg.Assets.Image,
		Audio:             seg.Assets.Audio,
		Branches:          branches,
		Active:            seg.ID == active,
	}
}

// withRequestID tags ctx with a fresh request id.
func withRequestID(ctx context.Context) context.Context {
	return services.WithRequestID(ctx, uuid.NewString())
}
