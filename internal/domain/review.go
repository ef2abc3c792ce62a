package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire and storage format of Review.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the format of the start_date/end_date filters.
const DateLayout = "2006-01-02"

type Review struct {
	ID       string    `json:"ReviewId"`
	Body     string    `json:"ReviewBody"`
	Location string    `json:"Location"`
	Time     Timestamp `json:"Timestamp"`
}

// Sentiment is a polarity score bundle. Compound is in [-1,1], the rest in [0,1].
type Sentiment struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// AnnotatedReview is a query-time copy of a Review with its sentiment attached.
type AnnotatedReview struct {
	Review
	Sentiment Sentiment `json:"sentiment"`
}

// Timestamp is a naive wall-clock time with second precision.
type Timestamp struct{ time.Time }

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return Timestamp{t}, nil
}

func (t Timestamp) String() string { return t.Format(TimestampLayout) }

func (t Timestamp) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = p
	return nil
}
