// spans.go — source positions for reader-produced forms
//
// WHAT THIS MODULE DOES
// =====================
// Every *List, *Vector and *Map produced by the reader records the half-open
// byte interval [StartByte, EndByte) it was read from. Editors use these spans
// to map a cursor position to the form that encloses it (FormAt), e.g. to
// evaluate "the expression under the cursor".
//
// Spans are plain fields on the collection values, not a sidecar index: forms
// are values in Schem, and macros hand them around freely, so the position has
// to travel with the form. Values built at run time carry the zero Span, which
// Valid reports as absent.
package schem

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Span represents a half-open byte interval [StartByte, EndByte) in the
// original source text.
type Span struct {
	StartByte int // inclusive
	EndByte   int // exclusive
}

// Valid reports whether the span was recorded by the reader.
func (s Span) Valid() bool { return s.EndByte > s.StartByte }

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return s.Valid() && offset >= s.StartByte && offset < s.EndByte
}

// SourceIndexStart is the first byte of the form in its source text.
func (s Span) SourceIndexStart() int { return s.StartByte }

// SourceIndexEnd is one past the last byte of the form in its source text.
func (s Span) SourceIndexEnd() int { return s.EndByte }

// SpanOf returns the recorded span of a collection form.
func SpanOf(v Value) (Span, bool) {
	var sp Span
	switch x := v.(type) {
	case *List:
		sp = x.Span
	case *Vector:
		sp = x.Span
	case *Map:
		sp = x.Span
	default:
		return Span{}, false
	}
	return sp, sp.Valid()
}

// FormAt returns the innermost List, Vector or Map under root whose span
// contains offset, or nil when no recorded form does.
func FormAt(root Value, offset int) Value {
	sp, ok := SpanOf(root)
	if !ok || !sp.Contains(offset) {
		return nil
	}
	for _, child := range childForms(root) {
		if inner := FormAt(child, offset); inner != nil {
			return inner
		}
	}
	return root
}

//// END_OF_PUBLIC

func childForms(v Value) []Value {
	switch x := v.(type) {
	case *List:
		return x.Items
	case *Vector:
		return x.Items
	case *Map:
		return x.Flatten()
	}
	return nil
}
