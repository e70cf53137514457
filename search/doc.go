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


// Package search ranks the document corpus against a research topic.
//
// Both search paths start by refining the topic with an oracle:
//   - Lexical: the refined query is split into terms and every document is
//     scored with weighted substring matches over its metadata fields.
//   - Semantic: the refined query is embedded and completed documents are
//     ranked by cosine similarity to it.
//
// Rankings are deterministic. Ties keep corpus insertion order and the top
// DefaultLimit results are returned.
package search
