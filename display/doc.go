// Package display supplies per-frame display and pose data to the render
// graph and presents its final framebuffer.
//
// The render goroutine samples a PoseSource through a Predictor at the
// start of each frame and stores the result in a FrameState. The present
// goroutine reads the same entry back by frame index. FrameState copies
// values in and out under a short lock; nothing else crosses goroutines.
package display
