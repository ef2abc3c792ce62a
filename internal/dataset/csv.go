// Package dataset loads the startup review dataset from a CSV file.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"review_analyzer/internal/domain"
)

var required = []string{"ReviewBody", "Location", "Timestamp"}

// CSVSource reads reviews from a CSV file with a header row.
type CSVSource struct{ Path string }

func NewCSVSource(path string) *CSVSource { return &CSVSource{Path: path} }

func (s *CSVSource) LoadReviews(ctx context.Context) ([]domain.Review, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse decodes CSV rows. Columns are located by header name; a missing
// ReviewId column (or empty cell) gets a fresh UUID.
func Parse(ctx context.Context, r io.Reader) ([]domain.Review, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset: empty file")
		}
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("dataset: missing column %q", name)
		}
	}
	idCol, hasID := col["ReviewId"]

	var out []domain.Review
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		cell := func(i int) string {
			if i < len(rec) {
				return rec[i]
			}
			return ""
		}
		ts, err := domain.ParseTimestamp(cell(col["Timestamp"]))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		rv := domain.Review{
			Body:     cell(col["ReviewBody"]),
			Location: cell(col["Location"]),
			Time:     ts,
		}
		if hasID {
			rv.ID = cell(idCol)
		}
		if rv.ID == "" {
			rv.ID = uuid.NewString()
		}
		out = append(out, rv)
	}
	return out, nil
}
