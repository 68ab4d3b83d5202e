// Package scene is the read-only view of drawable items that render jobs
// consume. Culling and sorting happen upstream; jobs receive ItemBounds and
// resolve each ID through a Scene.
package scene
