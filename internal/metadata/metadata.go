// Package metadata parses and serializes the structured metadata block that
// leads every idea document. The block is framed by "---" delimiter lines and
// holds a fixed schema of scalar and array fields; everything after the
// closing delimiter is free-form body text.
//
// Parsing is deliberately permissive: fields absent from older documents are
// defaulted (id to 0, category to the empty string) rather than rejected, so
// documents written under earlier schema revisions stay readable. Validate
// is the strict pre-flight check, not Parse.
package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Delimiter frames the metadata block at the top of a document.
const Delimiter = "---"

// Kind is the single document kind this schema describes.
const Kind = "idea"

// DateLayout is the required shape of the createdDate field.
const DateLayout = "2006-01-02"

// Lifecycle states for the status field.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusParked   = "parked"
	StatusArchived = "archived"
)

// Statuses returns the closed set of valid status values.
func Statuses() []string {
	return []string{StatusDraft, StatusActive, StatusParked, StatusArchived}
}

// arrayFields lists the sequence-valued keys in serialization order.
var arrayFields = []string{"tags", "relatedIds", "domainChecks", "existenceChecks"}

// Record is the typed form of a document's metadata block.
//
// ID 0 means "unassigned": the document exists but cannot yet be referenced
// by other documents. Category may legitimately be empty.
type Record struct {
	Kind            string
	Status          string
	CreatedDate     string
	ID              int
	Category        string
	Tags            []string
	RelatedIDs      []int
	DomainChecks    []string
	ExistenceChecks []string
}

// Document pairs a parsed metadata record with the prose body that follows
// the block. It is plain data; no part of the core retains one across calls.
type Document struct {
	Meta Record
	Body string
}

// Parse extracts the metadata block and body from a full document text.
// It returns ok=false when no delimiter framing exists, the block is not
// decodable, or any of the required scalars (kind, status, createdDate) is
// missing — a partially framed block counts as no metadata at all. Parse
// never fails with an error; malformed input is simply "no metadata".
func Parse(text string) (*Document, bool) {
	raw, body, ok := split(text)
	if !ok {
		return nil, false
	}

	rec := Record{
		Kind:        scalarString(raw["kind"]),
		Status:      scalarString(raw["status"]),
		CreatedDate: scalarString(raw["createdDate"]),
		Category:    scalarString(raw["category"]),
	}
	if rec.Kind == "" || rec.Status == "" || rec.CreatedDate == "" {
		return nil, false
	}

	// Backward-compatibility default: absent or unparsable id is 0, never
	// an error. Negative values are treated as unparsable.
	if n, ok := scalarInt(raw["id"]); ok && n >= 0 {
		rec.ID = n
	}

	rec.Tags = stringSeq(raw["tags"])
	rec.RelatedIDs = intSeq(raw["relatedIds"])
	rec.DomainChecks = stringSeq(raw["domainChecks"])
	rec.ExistenceChecks = stringSeq(raw["existenceChecks"])

	return &Document{Meta: rec, Body: body}, true
}

// Build serializes rec inside delimiter framing, followed by body verbatim.
// Field order is fixed for deterministic, diff-friendly output. Build never
// fails: zero-valued fields serialize as empty/zero and nil arrays as [].
//
// For any record that Parse could have produced, Parse(Build(r, b)) yields
// r and b unchanged.
func Build(rec Record, body string) string {
	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	writeScalar(&b, "kind", rec.Kind)
	writeScalar(&b, "status", rec.Status)
	writeScalar(&b, "createdDate", rec.CreatedDate)
	writeScalar(&b, "id", strconv.Itoa(rec.ID))
	writeScalar(&b, "category", rec.Category)
	writeScalar(&b, "tags", formatStrings(rec.Tags))
	writeScalar(&b, "relatedIds", formatInts(rec.RelatedIDs))
	writeScalar(&b, "domainChecks", formatStrings(rec.DomainChecks))
	writeScalar(&b, "existenceChecks", formatStrings(rec.ExistenceChecks))
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// Validate reports whether the record satisfies the strict schema: kind is
// the fixed literal, status belongs to the closed lifecycle set, createdDate
// is a well-formed date, and id is non-negative. Callers use it as a
// pre-flight check before Build; Build itself never enforces it.
func (r Record) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(Kind)),
		validation.Field(&r.Status, validation.Required, validation.In(StatusDraft, StatusActive, StatusParked, StatusArchived)),
		validation.Field(&r.CreatedDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&r.ID, validation.Min(0)),
	)
}

// ValidateSource checks the raw block shape that the typed Record cannot
// express: the category key must be present (though it may be empty), and
// every array field must actually be a sequence rather than a scalar.
func ValidateSource(text string) bool {
	raw, _, ok := split(text)
	if !ok {
		return false
	}
	doc, ok := Parse(text)
	if !ok || doc.Meta.Validate() != nil {
		return false
	}
	if _, present := raw["category"]; !present {
		return false
	}
	for _, key := range arrayFields {
		v, present := raw[key]
		if !present {
			return false
		}
		if _, isSeq := v.([]any); !isSeq {
			return false
		}
	}
	return true
}

// split separates the delimiter-framed block from the body and decodes the
// block into a loose map. ok=false when framing is absent or undecodable.
func split(text string) (map[string]any, string, bool) {
	trimmed := strings.TrimLeft(text, "\n\r")
	if !strings.HasPrefix(trimmed, Delimiter) {
		return nil, "", false
	}

	rest := trimmed[len(Delimiter):]
	idx := strings.Index(rest, "\n"+Delimiter)
	if idx < 0 {
		// Opening delimiter without a closing one: no metadata.
		return nil, "", false
	}

	block := rest[:idx]
	after := rest[idx+1+len(Delimiter):]
	// Exactly one newline terminates the closing delimiter line; keep any
	// further leading whitespace so Build/Parse round-trip byte-exactly.
	body := strings.TrimPrefix(after, "\n")

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil || raw == nil {
		return nil, "", false
	}
	return raw, body, true
}

// scalarString coerces a decoded YAML scalar to its textual form. Unquoted
// ISO dates decode as time.Time and are rendered back in DateLayout.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(DateLayout)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool, float64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func scalarInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == math.Trunc(t) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// stringSeq coerces a decoded sequence to strings. Anything that is not a
// sequence (including an absent key) yields an empty, non-nil slice.
func stringSeq(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, scalarString(item))
	}
	return out
}

// intSeq coerces a decoded sequence to integers, dropping items that do not
// parse as whole numbers.
func intSeq(v any) []int {
	items, ok := v.([]any)
	if !ok {
		return []int{}
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := scalarInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

// writeScalar emits "key: value" with no trailing space when value is empty.
func writeScalar(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte(':')
	if value != "" {
		b.WriteByte(' ')
		b.WriteString(value)
	}
	b.WriteByte('\n')
}

func formatStrings(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func formatInts(items []int) string {
	parts := make([]string, len(items))
	for i, n := range items {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
