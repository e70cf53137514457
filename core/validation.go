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

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a DocumentRecord according to domain rules.
//
// Validation rules:
//   - Title must not be blank
//   - EmbeddingStatus must be valid
//
// NOT validated:
//   - Abstract (an empty abstract is recorded as a failed embedding later)
//   - Embedding (absent until the lifecycle runs)
//   - ID (0 is assigned from the content key on insert)
func ValidateDocument(doc *DocumentRecord) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if err := ValidateStatus(doc.EmbeddingStatus); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateStatus validates that an EmbeddingStatus has a valid value.
func ValidateStatus(status EmbeddingStatus) error {
	if _, ok := statusNames[status]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateTransition checks an embedding status change.
//
// Allowed:
//   - pending -> completed
//   - pending -> failed
//   - completed -> pending, failed -> pending (explicit reset only)
//
// Everything else, including self-transitions, is rejected so a document
// can never skip back to completed without passing through pending.
func ValidateTransition(from, to EmbeddingStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}

	switch {
	case from == EmbeddingPending && (to == EmbeddingCompleted || to == EmbeddingFailed):
		return nil
	case from != EmbeddingPending && to == EmbeddingPending:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ValidateMode validates that a ClassificationMode has a valid value.
func ValidateMode(mode ClassificationMode) error {
	if mode != ModeInclusion && mode != ModeExclusion {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	return nil
}
