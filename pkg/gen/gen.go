// Package gen provides utility functions for generating identifiers.
package gen

import "github.com/google/uuid"

// BatchID generates a random identifier for a batch run. Two submissions of
// the same input are distinct batches, so the ID carries no input-derived
// component.
func BatchID() string {
	return uuid.NewString()
}
