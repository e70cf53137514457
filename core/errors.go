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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a DocumentRecord failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidStatus indicates an unknown EmbeddingStatus value.
	ErrInvalidStatus = errors.New("invalid embedding status")

	// ErrInvalidTransition indicates an embedding status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid embedding status transition")

	// ErrInvalidMode indicates an unknown ClassificationMode.
	ErrInvalidMode = errors.New("invalid classification mode")

	// ErrEmptyInput indicates empty text was passed where content is required.
	ErrEmptyInput = errors.New("empty input")
)
