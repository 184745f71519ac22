// Package queryir is the filter representation shared by relations and the
// SQL compiler.
//
// Conditions given to Where (a field → value mapping) are compiled into a
// small predicate tree, evaluated in memory by Match and, when the tree is
// portable, compiled to SQL by package querysql:
//
//	[Conditions] → [Predicate] → Match (in memory)
//	                           → querysql.Compile (SQLite source)
//
// PREDICATES:
//
//   - Equals: field = value (stringified-or-typed equality, nil only equals nil)
//   - In: field ∈ values
//   - Not: negation of a predicate
//   - And: conjunction (empty = always true)
//   - Func: an arbitrary Go predicate; never portable to SQL
//
// SEALED INTERFACE:
//
// Predicate is sealed with a marker method so backends can switch
// exhaustively over the node types.
//
// queryir imports only package value; it knows nothing about records. A
// predicate reads fields through the Row interface.
package queryir
