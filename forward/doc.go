// Package forward composes the forward rendering task: lighting setup,
// primary framebuffer preparation, stencil mask, opaque, background and
// transparent passes, pointer compositing and the final blit.
//
// Every job degrades to a no-op or a soft failure when a resource it needs
// is missing, so a disabled or failing stage drops a visual element for a
// frame without stopping the pipeline.
package forward
