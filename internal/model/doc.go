// Package model is an in-memory record store with an ActiveRecord-like
// query surface.
//
// A Model is the per-type context: it owns the type's Schema (declared
// fields, defaults, accessor bindings), its scopes, and its record store
// (an ordered sequence of Records plus an id index). Nothing is global;
// tests and callers construct as many isolated Models as they need.
//
// # Loading
//
// Load replaces the store's contents with a sequence of attribute maps.
// Every key seen in the payload (except id) is declared as a field, each
// row becomes a Record, and each Record is inserted in order. Ids are
// assigned when absent (max numeric id + 1) and must be unique: a duplicate
// id fails with *IdError, even among the rows of the first load. The raw
// payload is retained so Reload can rebuild the store after Clear or
// Create.
//
// # Querying
//
// All returns a Relation: a point-in-time copy of the record sequence that
// supports filter chaining (Where, WhereNot, Filter, Order, Limit) and
// terminal operations (Find, FindBy, Pluck, Pick, First, Last, Count).
// Relation operations never touch the store.
//
// Dynamic finders are resolved by name through Call and RespondsTo:
//
//	m.Call("findByName", "Canada")           // *Record or nil
//	m.Call("findByNameAndCodeBang", "US", 1) // *Record or *RecordNotFound
//	m.Call("find_all_by_active", true)       // []*Record
//
// Finders compare values as strings, except find_by_<field> and
// find_all_by_<field> for a single field, which compare typed values.
//
// # Concurrency
//
// A Model is safe for concurrent use. Schema and store mutations take a
// write lock; queries copy the record sequence under a read lock and then
// run without it. A Record's own attribute map is not synchronized: Set on
// a Record races with readers of that same Record.
package model
