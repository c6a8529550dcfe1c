package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Clone (if remote) and index a source-code repository so it can be queried",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Git URL (https:// or git@) or local directory path of the repository",
				},
			},
			Required: []string{"source"},
		},
	}
}

// queryRepositoryTool returns the tool definition for query_repository
func queryRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_repository",
		Description: "Ask a natural-language question about the indexed repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer about the repository",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of passages to retrieve (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"generate_answer": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, return retrieved passages without calling the language model",
					"default":     true,
				},
			},
			Required: []string{"question"},
		},
	}
}

// retrievalStatusTool returns the tool definition for retrieval_status
func retrievalStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "retrieval_status",
		Description: "Report whether a repository is indexed and the corpus statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
