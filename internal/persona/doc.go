// Package persona defines the structured persona record consumed by panels
// and the Decision Engine, together with its validation, file loading and
// an explicit, injectable cache.
//
// Personas are read-only once loaded. Nothing in the panel or decision
// packages mutates a Persona; the population pipeline builds new ones
// section by section in a fixed order (see Sections).
package persona
