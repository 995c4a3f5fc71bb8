package request

import (
	"strings"

	"otodake/internal/errs"
)

// Enqueue carries the raw multi-line text pasted by the user. One URL per
// line; validation of individual lines happens later so a batch can report
// per-line rejections.
type Enqueue struct {
	URLs string `json:"urls"`
}

func (e *Enqueue) Validate() error {
	if strings.TrimSpace(e.URLs) == "" {
		return errs.ErrEmptyInput
	}

	return nil
}
