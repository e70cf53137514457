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


// Package ai provides abstractions for the language-model services litscreen calls.
//
// # Interfaces
//
//   - Oracle: sends a prompt, optionally with a JSON Schema, and returns a Reply
//   - Embedder: generates vector embeddings from text
//   - AIProvider: aggregates both for convenient initialization
//
// An Oracle is treated as an unreliable black box. Replies may ignore the
// requested format, so Reply.Structured tells callers whether the backend
// enforced the schema. Unstructured replies go through package extract.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs; enforces schemas with json_schema response formats
//   - ai/ollama: Ollama's native API; JSON mode only, schemas are not enforced
//   - ai/mock: test doubles for unit testing without external services
//
// Public constructors return interfaces. Mock constructors return concrete
// types so tests can script replies and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithOracleModel("deepseek-r1:14b"))
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	reply, err := provider.Oracle().Invoke(ctx, prompt, ai.ClassificationSchema)
package ai
