// Package value defines how refset treats attribute values.
//
// Records hold plain Go values (whatever the data source produced). This
// package is the single place that decides:
//   - Normalization: every integer width becomes int64, float32 becomes
//     float64, json.Number is resolved, []byte becomes string
//   - Stringification: the "to string" form used by the id index and by
//     dynamic finders (1, int64(1), float64(1) and "1" all stringify to "1")
//   - Equality: typed equality with numeric kinds compared by value
//   - Ordering: a total order used by Order and by id assignment
//   - Presence: the interrogator semantics (nil, blank strings, false and
//     empty collections are absent)
//
// Composite values (slices, maps) are stringified with canonical JSON so the
// result does not depend on map iteration order.
//
// value imports nothing internal. Every other package may import it.
package value
