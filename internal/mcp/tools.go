// ABOUTME: MCP tool definitions and registration for the topicmap server
// ABOUTME: Declares input schemas for the extraction, assignment, QA and session tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var textsProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "Texts to analyze, one entry per response or comment",
}

var filterProperties = map[string]interface{}{
	"topic": map[string]interface{}{
		"type":        "string",
		"description": "Only include rows with this topic",
	},
	"sub_topic": map[string]interface{}{
		"type":        "string",
		"description": "Only include rows with this subtopic",
	},
	"category": map[string]interface{}{
		"type":        "string",
		"description": "Only include rows with this category (kpt_type)",
	},
	"region": map[string]interface{}{
		"type":        "string",
		"description": "Only include rows from this region",
	},
}

func withFilter(props map[string]interface{}) map[string]interface{} {
	for k, v := range filterProperties {
		props[k] = v
	}
	return props
}

// RegisterTools registers all MCP tools with the server.
// store may be nil, in which case the session tools report an error.
func RegisterTools(server *mcpserver.MCPServer, store *sqlite.Storage, analyzer *core.Analyzer, qa *core.QuestionAnswerer, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	handlers := &Handlers{
		storage:  store,
		analyzer: analyzer,
		qa:       qa,
		logger:   logger,
	}

	server.AddTool(mcp.Tool{
		Name:        "extract_keywords",
		Description: "Extract the most important keywords from a set of texts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"texts": textsProperty},
			Required:   []string{"texts"},
		},
	}, handlers.ExtractKeywords)

	server.AddTool(mcp.Tool{
		Name:        "extract_topics",
		Description: "Extract a small taxonomy of topics, each with a description and subtopics, grounded in the supplied texts. A catch-all 'Other' topic is always appended.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"texts": textsProperty},
			Required:   []string{"texts"},
		},
	}, handlers.ExtractTopics)

	server.AddTool(mcp.Tool{
		Name:        "assign_topics",
		Description: "Assign each text to one topic and subtopic from the supplied taxonomy. Returns one row per non-blank text in input order; failed batches are marked with assignment-error rows.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"texts": textsProperty,
				"topics": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"topic":       map[string]interface{}{"type": "string"},
							"description": map[string]interface{}{"type": "string"},
							"subTopics": map[string]interface{}{
								"type":  "array",
								"items": map[string]interface{}{"type": "string"},
							},
						},
						"required": []string{"topic", "subTopics"},
					},
					"description": "Taxonomy to assign against, as returned by extract_topics",
				},
			},
			Required: []string{"texts", "topics"},
		},
	}, handlers.AssignTopics)

	server.AddTool(mcp.Tool{
		Name:        "analyze_texts",
		Description: "Run the full pipeline: extract topics from the texts, assign every text, and optionally save the result as a session.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"texts": textsProperty,
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Label recorded as the session's source (default: mcp)",
				},
				"save": map[string]interface{}{
					"type":        "boolean",
					"description": "Persist the result as a session (default: true)",
					"default":     true,
				},
			},
			Required: []string{"texts"},
		},
	}, handlers.AnalyzeTexts)

	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a free-form question about the rows of a saved session. Recent questions and answers of the session are used as context and the new exchange is recorded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withFilter(map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session to ask about",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question about the data",
				},
			}),
			Required: []string{"session_id", "question"},
		},
	}, handlers.AskQuestion)

	server.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List saved analysis sessions, newest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListSessions)

	server.AddTool(mcp.Tool{
		Name:        "get_session_rows",
		Description: "Get the topics, facet counts and (optionally filtered) rows of a saved session.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withFilter(map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session to read",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rows to return (default: 100, 0 for all)",
					"default":     100,
				},
			}),
			Required: []string{"session_id"},
		},
	}, handlers.GetSessionRows)

	return handlers
}

// NewServer creates an MCP server with every topicmap tool registered
func NewServer(version string, store *sqlite.Storage, analyzer *core.Analyzer, qa *core.QuestionAnswerer, logger *log.Logger) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer("topicmap", version)
	return server, RegisterTools(server, store, analyzer, qa, logger)
}
