// Package reporter delivers similarity results to their consumers. Sinks are
// called by one goroutine at a time; the comparison stage serializes calls.
package reporter

import (
	"errors"
	"fmt"
	"io"

	"imagedupes/types"
)

// Sink consumes similarity results as they are found
type Sink interface {
	Report(result types.SimilarityResult) error
}

// FormatResult renders a result as one output line without the newline
func FormatResult(r types.SimilarityResult) string {
	return fmt.Sprintf("%s | %s: similar (difference = %d)", r.A, r.B, r.Distance)
}

// TextSink writes one line per result
type TextSink struct {
	w io.Writer
}

// NewTextSink creates a sink writing to w
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// Report writes the formatted result followed by a newline
func (s *TextSink) Report(r types.SimilarityResult) error {
	_, err := fmt.Fprintln(s.w, FormatResult(r))
	return err
}

// MultiSink fans every result out to all of its sinks
type MultiSink []Sink

// Report delivers r to every sink, even after one of them fails
func (m MultiSink) Report(r types.SimilarityResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CollectSink keeps every result in memory
type CollectSink struct {
	Results []types.SimilarityResult
}

// Report appends r
func (c *CollectSink) Report(r types.SimilarityResult) error {
	c.Results = append(c.Results, r)
	return nil
}
