// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for litscreen.
//
// This package defines repository interfaces that decouple the screening
// logic from the storage implementation. Search, the embedding lifecycle and
// the classification pipeline only ever see these interfaces.
//
// # Architecture
//
//   - DocumentRepository: the candidate corpus and its embedding state
//   - ResultRepository: classification records and mined pattern sets
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	docs, err := badger.NewDocumentRepository(backend)
//
// Use in tests with in-memory storage:
//
//	docs, results, backend, err := badger.NewMemoryRepositories()
//
// # Errors
//
// Backend failures wrap ErrPersistence. Write conflicts between concurrent
// transactions additionally wrap ErrConflict and are safe to retry.
// Embedding status changes that break the lifecycle rules surface as
// core.ErrInvalidTransition.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use. Each
// UpdateEmbedding call is a single atomic transaction; overlapping
// lifecycle runs against the same corpus must still be serialized by the
// caller.
package storage
