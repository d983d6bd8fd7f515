package warehouse

import (
	"fmt"
	"time"
)

// SequenceDateLayout is the date part of document numbers
const SequenceDateLayout = "20060102"

// FormatNumber renders "{DOC_TYPE}-{YYYYMMDD}-{seq:04d}"
func FormatNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format(SequenceDateLayout), seq)
}

// SequenceDay truncates t to the calendar day the sequence is keyed on
func SequenceDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
