// Package pipeline runs experiment stages as a channel pipeline.
//
// A pipeline is built from a source, any number of transform stages, and one
// or more sinks. Elements move between steps over unbuffered channels, so a
// slow stage naturally applies back-pressure to its producers. Stages can
// consume their input with several workers when the transform is CPU-bound.
//
// The pipeline stops on the first error: every step reports into its own
// error channel, the channels are merged, and the first received error
// cancels the shared context so all running steps wind down. The error is
// returned wrapped with the name of the failing step.
//
// Options attached at construction observe the pipeline without touching the
// data flow: the measure option records per-step timings, the drawer option
// renders the step graph.
package pipeline
