package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ironsheep/tavern-watch/internal/advice"
	"github.com/ironsheep/tavern-watch/internal/broadcast"
	"github.com/ironsheep/tavern-watch/internal/gamestate"
	"github.com/ironsheep/tavern-watch/internal/pipeline"
)

// NewMCPServer returns an MCP server with every tool registered.
func (s *Server) NewMCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.version}, nil)
	for _, tool := range GetToolDefinitions() {
		srv.AddTool(tool, s.toolHandler(tool.Name))
	}
	return srv
}

// ServeMCP serves the MCP tools on transport until ctx is cancelled or the
// client disconnects.
func (s *Server) ServeMCP(ctx context.Context, transport mcp.Transport) error {
	err := s.NewMCPServer().Run(ctx, transport)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// toolHandler wraps executeTool in MCP's result format:
//
//	{"content": [{"type": "text", "text": "<JSON result>"}]}
//
// Execution errors become tool errors with IsError set.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := s.executeTool(name, args)
		if err != nil {
			s.logger.Debug("tool failed", "tool", name, "error", err)
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: mustMarshalJSON(result)}},
		}, nil
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Game State
	case ToolGetGameState:
		return s.handleGetGameState()
	case ToolGetRecognitionStatus:
		return s.handleGetRecognitionStatus()

	// Coaching
	case ToolGetGameAdvice:
		return s.handleGetGameAdvice(args)
	case ToolAnalyzeBoard:
		return s.handleAnalyzeBoard()

	// Scheduler Control
	case ToolStartRecognition:
		return s.handleStartRecognition()
	case ToolStopRecognition:
		return s.handleStopRecognition()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Game State Handlers ===

func (s *Server) latest() (*gamestate.Snapshot, error) {
	snap, ok := s.broadcaster.Latest()
	if !ok {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

func (s *Server) handleGetGameState() (interface{}, error) {
	return s.latest()
}

// RecognitionStatus is the get_recognition_status result.
type RecognitionStatus struct {
	broadcast.Status
	Scheduler *pipeline.Stats   `json:"scheduler,omitempty"`
	Delivery  broadcast.Counters `json:"delivery"`
}

func (s *Server) handleGetRecognitionStatus() (interface{}, error) {
	st := RecognitionStatus{
		Status:   s.broadcaster.Status(),
		Delivery: s.broadcaster.Counters(),
	}
	if s.scheduler != nil {
		stats := s.scheduler.Stats()
		st.Scheduler = &stats
	}
	return st, nil
}

// === Coaching Handlers ===

// GetGameAdviceArgs are the arguments of get_game_advice.
type GetGameAdviceArgs struct {
	AdviceType string `json:"advice_type"`
}

func (s *Server) handleGetGameAdvice(args json.RawMessage) (interface{}, error) {
	var a GetGameAdviceArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if a.AdviceType == "" {
		a.AdviceType = string(advice.KindGeneral)
	}

	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	return advice.Advise(snap, advice.Kind(a.AdviceType)), nil
}

func (s *Server) handleAnalyzeBoard() (interface{}, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	return advice.AnalyzeBoard(snap), nil
}

// === Scheduler Control Handlers ===

// SchedulerResult is returned by the scheduler control tools.
type SchedulerResult struct {
	State string `json:"state"`
}

func (s *Server) handleStartRecognition() (interface{}, error) {
	if s.scheduler == nil {
		return nil, fmt.Errorf("recognition scheduler is not configured")
	}
	if err := s.scheduler.Start(s.baseCtx); err != nil {
		return nil, err
	}
	return SchedulerResult{State: s.scheduler.Stats().State}, nil
}

func (s *Server) handleStopRecognition() (interface{}, error) {
	if s.scheduler == nil {
		return nil, fmt.Errorf("recognition scheduler is not configured")
	}
	if err := s.scheduler.Stop(); err != nil {
		return nil, err
	}
	return SchedulerResult{State: s.scheduler.Stats().State}, nil
}
