// Package hostcompat adapts record types to a host persistence framework.
//
// A host framework expects every model to answer a few questions the
// record store itself has no opinion on: what prefix its cache keys use,
// which "base type" and "polymorphic name" it reports for association
// metadata, and how a transaction block behaves. Host supplies those
// answers; Inflector is the default, deriving them from the type name the
// way Rails-style frameworks do (Country → countries).
//
// Transaction is a no-op wrapper: the block runs directly, and the only
// error it absorbs is ErrRollback. Every other error, including the record
// store's own typed errors, is returned unchanged.
//
// Reflector is the capability interface a host's reflection layer uses to
// see dynamic finders as if they were real methods.
package hostcompat
