package shared

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// NormalizeCode trims and upper-cases a document or reference number.
func NormalizeCode(code string) string {
	return upper.String(strings.TrimSpace(code))
}

// DocumentLookup identifies the invoice or challan generated for a
// quotation. Any matching criterion is enough; zero values are ignored.
type DocumentLookup struct {
	LinkedID          uuid.UUID
	SourceQuotationID uuid.UUID
	Code              string
	ReferenceNo       string
}

// Normalized returns a copy with upper-cased codes.
func (l DocumentLookup) Normalized() DocumentLookup {
	l.Code = NormalizeCode(l.Code)
	l.ReferenceNo = NormalizeCode(l.ReferenceNo)
	return l
}

// Empty reports whether no criterion is set.
func (l DocumentLookup) Empty() bool {
	return l.LinkedID == uuid.Nil && l.SourceQuotationID == uuid.Nil && l.Code == "" && l.ReferenceNo == ""
}
