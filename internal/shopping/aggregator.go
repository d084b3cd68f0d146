// Package shopping builds the downloadable shopping list for a user's cart.
//
// Lines are merged only when both the ingredient name and the measurement
// unit match exactly (case-sensitive). No unit conversion is attempted, so
// "flour, g" and "flour, kg" stay on separate lines. Two distinct catalogue
// ingredients sharing a name and unit are merged, since the key is the
// display name rather than the ingredient identity.
package shopping

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/mmynk/foodgram/internal/models"
)

const (
	// DefaultHeader is the first line of every report.
	DefaultHeader = "Shopping list:"
	// Filename is the suggested attachment name.
	Filename = "shopping_list.txt"
	// ContentType is the MIME type of the rendered report.
	ContentType = "text/plain; charset=utf-8"
)

// AggregatedLine is one merged row of the shopping list.
type AggregatedLine struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// Report is a rendered shopping list ready to be sent as an attachment.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
	Lines       []AggregatedLine
}

// LineSource returns every ingredient line of every recipe in a user's cart.
type LineSource interface {
	CartIngredientLines(ctx context.Context, userID int64) ([]models.IngredientLine, error)
}

// Aggregator fetches cart lines and renders them as a report.
type Aggregator struct {
	source  LineSource
	header  string
	observe func(lines int)
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithHeader overrides DefaultHeader.
func WithHeader(header string) Option {
	return func(a *Aggregator) { a.header = header }
}

// WithObserver registers a callback receiving the number of aggregated lines
// of each built report.
func WithObserver(fn func(lines int)) Option {
	return func(a *Aggregator) { a.observe = fn }
}

// NewAggregator creates an Aggregator reading from source.
func NewAggregator(source LineSource, opts ...Option) *Aggregator {
	a := &Aggregator{source: source, header: DefaultHeader}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build aggregates the cart of userID and renders the report.
// An empty cart yields a report containing only the header.
func (a *Aggregator) Build(ctx context.Context, userID int64) (*Report, error) {
	lines, err := a.source.CartIngredientLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart ingredients: %w", err)
	}

	merged := Aggregate(lines)
	if a.observe != nil {
		a.observe(len(merged))
	}

	return &Report{
		Filename:    Filename,
		ContentType: ContentType,
		Body:        Render(a.header, merged),
		Lines:       merged,
	}, nil
}

type lineKey struct {
	name string
	unit string
}

// Aggregate merges lines sharing the same name and unit by summing their
// amounts. The result is sorted by name, then unit.
func Aggregate(lines []models.IngredientLine) []AggregatedLine {
	totals := make(map[lineKey]int64, len(lines))
	for _, line := range lines {
		totals[lineKey{name: line.Name, unit: line.MeasurementUnit}] += int64(line.Amount)
	}

	result := make([]AggregatedLine, 0, len(totals))
	for key, total := range totals {
		result = append(result, AggregatedLine{
			Name:            key.name,
			MeasurementUnit: key.unit,
			Total:           total,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].MeasurementUnit < result[j].MeasurementUnit
	})

	return result
}

// Render writes the header followed by one "<name> - <total>, <unit>" line
// per entry. Every line ends with a newline.
func Render(header string, lines []AggregatedLine) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')
	for _, line := range lines {
		fmt.Fprintf(&buf, "%s - %d, %s\n", line.Name, line.Total, line.MeasurementUnit)
	}
	return buf.Bytes()
}
