// Package finder decomposes dynamic finder names.
//
// A finder name encodes three things: whether every match or only the first
// is wanted, whether a miss is an error, and the ordered list of fields to
// compare against the call's positional arguments. Two spellings are
// accepted:
//
//	findByName, findAllByActive, findByNameAndCode, findByNameBang
//	find_by_name, find_all_by_active, find_by_name_and_code, find_by_name!
//
// Parsing is purely syntactic. Deciding whether the field segments name real
// fields is the caller's job (see schema.Schema.Resolve), as is running the
// match. Parse results are cheap to compute but finder names are looked up
// on every dispatch, so Parser keeps recent results in an LRU cache.
package finder
