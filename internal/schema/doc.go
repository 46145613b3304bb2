// Package schema validates untyped documents against embedded CUE definitions.
//
// A Validator compiles its CUE source once. Each call to Validate unifies a
// JSON document with one named definition, requires the result to be fully
// concrete, and decodes it into a Go value. Validation is all-or-nothing: on
// failure nothing is decoded and every violation is reported with the field
// path it applies to.
package schema
