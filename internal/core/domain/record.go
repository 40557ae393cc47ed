package domain

import "fmt"

// FieldType is a semantic tag describing how the backend should treat a
// record field. The vocabulary is open: unknown tags are passed through to
// the backend uninterpreted.
type FieldType string

const (
	// FieldTitle marks the display title of a record.
	FieldTitle FieldType = "title"

	// FieldSemantic marks free text used for semantic placement.
	FieldSemantic FieldType = "semantic"

	// FieldNumeric marks a numeric value.
	FieldNumeric FieldType = "numeric"

	// FieldCategoric marks a low-cardinality categorical value.
	FieldCategoric FieldType = "categoric"

	// FieldDate marks a date or timestamp value.
	FieldDate FieldType = "date"

	// FieldLinks marks a URL field.
	FieldLinks FieldType = "links"

	// FieldLabel marks a short display label.
	FieldLabel FieldType = "label"

	// FieldText marks plain text with no semantic treatment.
	FieldText FieldType = "text"
)

// Record is one semantic unit extracted from a source: one search result,
// one email, one commit, one document segment. Fields are dynamic; there is
// no fixed schema across connections.
type Record map[string]any

// FieldTypeMap declares the semantic type of every field in a batch.
type FieldTypeMap map[string]FieldType

// Batch is a homogeneous set of records plus their field-type declarations.
// Every record in a batch must expose exactly the same field names, and
// every key in FieldTypes must be present in every record.
type Batch struct {
	// Records are the extracted units, in source order.
	Records []Record

	// FieldTypes maps each field name to its semantic type.
	FieldTypes FieldTypeMap
}

// Validate checks the schema consistency invariant: each record carries
// every declared field, and no record carries a field that is not declared.
func (b *Batch) Validate() error {
	if len(b.Records) == 0 {
		return fmt.Errorf("%w: batch has no records", ErrInvalidInput)
	}
	if len(b.FieldTypes) == 0 {
		return fmt.Errorf("%w: batch has no field types", ErrInvalidInput)
	}

	for i, record := range b.Records {
		for field := range b.FieldTypes {
			if _, ok := record[field]; !ok {
				return fmt.Errorf("%w: record %d is missing field %q", ErrSchemaMismatch, i, field)
			}
		}
		for field := range record {
			if _, ok := b.FieldTypes[field]; !ok {
				return fmt.Errorf("%w: record %d has undeclared field %q", ErrSchemaMismatch, i, field)
			}
		}
	}
	return nil
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	return len(b.Records)
}
