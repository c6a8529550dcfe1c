// Package types provides shared type definitions for repoqa.
//
// The central type is Passage: a chunk of text split from one original
// document in an indexed repository, carrying provenance metadata (the
// repo-relative path of the source file and the id of the parent document).
// A Corpus is the ordered collection of every Passage produced for one
// repository; score vectors computed by the retrieval engine are aligned
// 1:1 by index with this ordering, so the ordering is part of the contract.
//
// Example:
//
//	p := types.Passage{
//	    ID:         uuid.NewString(),
//	    DocumentID: docID,
//	    SourcePath: "internal/server/server.go",
//	    Text:       chunkText,
//	    Position:   2,
//	}
//	if err := p.Validate(); err != nil { ... }
package types
