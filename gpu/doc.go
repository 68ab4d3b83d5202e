// Package gpu is the command sink render jobs draw into.
//
// Jobs never inspect results from a Batch; the only data flowing between
// jobs goes through render slots. A Device creates the persistent resources
// (framebuffers, textures, pipelines) that jobs create lazily and reuse.
//
// Recorder implements both interfaces without a GPU. It keeps every call as
// a Command, which makes frame output comparable with cmp.Diff and lets the
// CLI run pipelines headless.
package gpu
