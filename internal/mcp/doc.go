// Package mcp exposes repoqa over the Model Context Protocol on stdio.
//
// Three tools are registered:
//
//   - index_repository: clone (if given a URL) and index a repository,
//     building the in-memory retrieval engine for subsequent queries
//   - query_repository: retrieve the top-K passages for a question and,
//     when answer generation is configured, produce an LLM answer
//   - retrieval_status: report whether a repository is indexed and the
//     corpus statistics of the current session
//
// The retrieval engine lives in memory for the lifetime of the server
// process; indices are never persisted. Conversation history is persisted
// through the history store so answers can use prior exchanges as context.
//
// Protocol notes: stdout is reserved for MCP framing; all logging goes to
// stderr.
package mcp
