// Package embedding computes and stores abstract embeddings for the
// document corpus.
//
// Every document carries an embedding status. New documents start pending;
// a Lifecycle run moves each pending document to completed (vector stored)
// or failed (no usable text, or the embedder errored). Settled documents are
// never recomputed unless explicitly reset to pending.
//
// The package also provides retry with exponential backoff for conflicting
// storage updates, progress tracking, and vector normalization so stored
// vectors suit cosine similarity ranking.
package embedding
