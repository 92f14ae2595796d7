// ABOUTME: Typed errors surfaced by the extraction and question answering components
// ABOUTME: Each carries a user-facing message and wraps the underlying cause
package core

import "fmt"

// TaxonomyExtractionError is returned when topic extraction fails or returns the wrong shape
type TaxonomyExtractionError struct {
	Message string
	Err     error
}

func (e *TaxonomyExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TaxonomyExtractionError) Unwrap() error { return e.Err }

// KeywordExtractionError is returned when keyword extraction fails or returns the wrong shape
type KeywordExtractionError struct {
	Message string
	Err     error
}

func (e *KeywordExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *KeywordExtractionError) Unwrap() error { return e.Err }

// QAError is returned when a question could not be answered
type QAError struct {
	Message string
	Err     error
}

func (e *QAError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *QAError) Unwrap() error { return e.Err }
