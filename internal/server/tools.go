package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ironsheep/tavern-watch/internal/advice"
)

// Tool names.
const (
	ToolGetGameState         = "get_game_state"
	ToolGetRecognitionStatus = "get_recognition_status"
	ToolGetGameAdvice        = "get_game_advice"
	ToolAnalyzeBoard         = "analyze_board"
	ToolStartRecognition     = "start_recognition"
	ToolStopRecognition      = "stop_recognition"
)

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func adviceKinds() []string {
	kinds := make([]string, len(advice.Kinds))
	for i, k := range advice.Kinds {
		kinds[i] = string(k)
	}
	return kinds
}

// GetToolDefinitions returns all available tools.
func GetToolDefinitions() []*mcp.Tool {
	return []*mcp.Tool{
		// Game State
		{
			Name:        ToolGetGameState,
			Description: "Get the most recently recognized game state snapshot: tavern tier, gold, turn, hero, shop and board minions.",
			InputSchema: emptySchema(),
		},
		{
			Name:        ToolGetRecognitionStatus,
			Description: "Get the recognition service status: active delivery connections, time of the last snapshot and scheduler counters.",
			InputSchema: emptySchema(),
		},

		// Coaching
		{
			Name:        ToolGetGameAdvice,
			Description: "Get advice based on the current game state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"advice_type": map[string]interface{}{
						"type":        "string",
						"enum":        adviceKinds(),
						"description": "Advice topic. Default general",
						"default":     string(advice.KindGeneral),
					},
				},
			},
		},
		{
			Name:        ToolAnalyzeBoard,
			Description: "Analyze the current board: tribe composition, golden minions, totals, strength rating and suggestions.",
			InputSchema: emptySchema(),
		},

		// Scheduler Control
		{
			Name:        ToolStartRecognition,
			Description: "Start the capture and recognition loop. Fails if it is already running.",
			InputSchema: emptySchema(),
		},
		{
			Name:        ToolStopRecognition,
			Description: "Stop the capture and recognition loop after the cycle in progress. Fails if it is not running.",
			InputSchema: emptySchema(),
		},
	}
}
