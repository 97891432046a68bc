package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entity IDs are prefixed ULIDs: sortable, and the prefix makes a bare ID
// in a log line self-describing.
func newID(prefix string) string {
	t := time.Now().UTC()
	return prefix + "_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NewBroadcastID() string   { return newID("bc") }
func NewDeliveryID() string    { return newID("dlv") }
func NewEnrollmentID() string  { return newID("enr") }
func NewTranslationID() string { return newID("tr") }
func NewVariantID() string     { return newID("var") }
func NewAlertID() string       { return newID("al") }

func NowUTC() time.Time {
	return time.Now().UTC()
}
