// Package engine drives an opportunity through the decision pipeline.
//
// For each stage the engine resolves the stage's four personas, runs the
// panel rounds, synthesises the stage artefact from the transcript, records
// it against the gate and checks the kill criteria. Run repeats this until
// the pipeline is done.
//
// The engine is the single writer of a pipeline state. Stages run strictly
// in sequence, and personas within a round speak one at a time because each
// sees what the earlier speakers said.
//
// A generation or synthesis failure aborts the current stage. The state
// returned alongside the error is the last good one, and Resume continues
// from it.
package engine
