// Package render composes a frame as an ordered graph of typed jobs.
//
// A Builder declares children in dependency order. Each child binds its
// inputs to slots already in scope: the task's input, or an output of a
// sibling added strictly earlier. Anything else fails at Add, so a built
// Task can never run with an unbound input and cannot contain a cycle.
//
//	b := render.NewBuilder("Example")
//	items := render.Input[scene.ItemBounds](b)
//	fb := render.AddJobO[*gpu.Framebuffer](b, "Prepare", &prepare{}, render.Setup())
//	drawn := render.AddJobIO[*gpu.Framebuffer, *gpu.Framebuffer](b, "Draw", &draw{}, fb)
//	render.AddJobI[scene.ItemBounds](b, "Overlay", &overlay{}, items)
//	render.Output(b, drawn)
//	task, err := b.Build()
//
// Type arguments are spelled out because they cannot be inferred from a
// runner's methods.
//
// A Pipeline owns the built root task together with its ConfigTree, the
// per-frame Context and a Mailbox of asynchronous completions. RenderFrame
// walks the tree once in declaration order on the calling goroutine.
// Disabled nodes are skipped; a job that fails or panics is recorded and
// treated as skipped for that frame. What a skipped producer leaves in its
// output slot is the slot's SkipPolicy.
//
// Configuration is addressed by dotted node path ("Forward.Draw") and may
// be changed from any goroutine; a job observes new parameters through
// Configure before its next run.
package render
