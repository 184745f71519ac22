// Package schema holds the per-type field registry.
//
// A Schema is an explicit descriptor table: one Field per declared name,
// each carrying a getter, a setter and an interrogator bound at declaration
// time. Bindings are generated unless a hand-written Accessor was registered
// with Override, in which case the hand-written functions win and are never
// replaced by later declarations.
//
// Field order is declaration order. Fields discovered by AutoDetect are
// appended in first-seen order across rows (keys within a single row are
// visited in sorted order because Go maps carry no order).
//
// The name "attributes" is reserved and rejected with *ReservedFieldError.
// The name "id" is the primary key; it is never auto-detected as a field and
// always resolves for finders.
//
// Schema is not safe for concurrent use. The owning model serializes access.
package schema
