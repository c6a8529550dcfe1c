package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoqa/repoqa/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Model:          config.DefaultModel,
		TopK:           config.DefaultTopK,
		HistoryContext: config.DefaultHistoryCtx,
		HistoryPath:    ":memory:",
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.store.Close() })
	return s
}

func testRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"math.py":   "def add(a, b): return a+b",
		"story.txt": "The quick brown fox jumps",
		"math.js":   "function add(a,b){return a+b;}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
	}
	return root
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestIndexRepositoryTool(t *testing.T) {
	s := testServer(t)
	root := testRepo(t)

	result, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{"source": root}))
	require.NoError(t, err)

	response := resultJSON(t, result)
	assert.Equal(t, true, response["indexed"])
	assert.Equal(t, float64(3), response["files_loaded"])
	assert.Equal(t, float64(3), response["passages"])

	sess := s.currentSession()
	require.NotNil(t, sess)
	assert.Equal(t, 3, sess.engine.Len())
	assert.Nil(t, sess.asker, "no API key configured")
}

func TestIndexRepositoryInvalidArguments(t *testing.T) {
	s := testServer(t)

	_, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestIndexRepositoryMissingPath(t *testing.T) {
	s := testServer(t)

	_, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{
			"source": filepath.Join(t.TempDir(), "does-not-exist"),
		}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestQueryRepositoryWithoutIndex(t *testing.T) {
	s := testServer(t)

	_, err := s.handleQueryRepository(context.Background(),
		callRequest("query_repository", map[string]interface{}{"question": "what is this"}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNotIndexed, mcpErr.Code)
}

func TestQueryRepositoryRetrievalOnly(t *testing.T) {
	s := testServer(t)
	root := testRepo(t)

	_, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{"source": root}))
	require.NoError(t, err)

	result, err := s.handleQueryRepository(context.Background(),
		callRequest("query_repository", map[string]interface{}{
			"question":        "add function python",
			"top_k":           float64(2),
			"generate_answer": false,
		}))
	require.NoError(t, err)

	response := resultJSON(t, result)
	passages, ok := response["passages"].([]interface{})
	require.True(t, ok)
	require.Len(t, passages, 2)

	for _, p := range passages {
		entry := p.(map[string]interface{})
		assert.NotEqual(t, "story.txt", entry["source"],
			"prose passage must not outrank the code passages")
	}
}

func TestQueryRepositoryAnswerRequiresClient(t *testing.T) {
	s := testServer(t)
	root := testRepo(t)

	_, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{"source": root}))
	require.NoError(t, err)

	_, err = s.handleQueryRepository(context.Background(),
		callRequest("query_repository", map[string]interface{}{"question": "what does add do"}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNoAnswerer, mcpErr.Code)
}

func TestQueryRepositoryEmptyQuestion(t *testing.T) {
	s := testServer(t)

	_, err := s.handleQueryRepository(context.Background(),
		callRequest("query_repository", map[string]interface{}{"question": "   "}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuestion, mcpErr.Code)
}

func TestRetrievalStatus(t *testing.T) {
	s := testServer(t)

	result, err := s.handleRetrievalStatus(context.Background(),
		callRequest("retrieval_status", nil))
	require.NoError(t, err)
	response := resultJSON(t, result)
	assert.Equal(t, false, response["indexed"])

	root := testRepo(t)
	_, err = s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{"source": root}))
	require.NoError(t, err)

	result, err = s.handleRetrievalStatus(context.Background(),
		callRequest("retrieval_status", nil))
	require.NoError(t, err)
	response = resultJSON(t, result)
	assert.Equal(t, true, response["indexed"])
	assert.Equal(t, false, response["answering_enabled"])
}

func TestReindexReleasesPreviousClone(t *testing.T) {
	s := testServer(t)

	dir := t.TempDir()
	s.setSession(&session{root: dir, cleanup: func() { _ = os.RemoveAll(dir) }})

	_, err := s.handleIndexRepository(context.Background(),
		callRequest("index_repository", map[string]interface{}{"source": testRepo(t)}))
	require.NoError(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "replaced session must release its clone directory")
}

func TestRepositoryName(t *testing.T) {
	assert.Equal(t, "myrepo", repositoryName("https://github.com/someone/myrepo"))
	assert.Equal(t, "myrepo", repositoryName("https://github.com/someone/myrepo.git"))
	assert.Equal(t, "local", repositoryName("/home/user/local"))
	assert.Equal(t, "repository", repositoryName("/"))
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, isRemoteURL("https://github.com/a/b"))
	assert.True(t, isRemoteURL("http://example.com/a/b"))
	assert.True(t, isRemoteURL("git@github.com:a/b.git"))
	assert.False(t, isRemoteURL("/home/user/repo"))
	assert.False(t, isRemoteURL("./relative"))
}
