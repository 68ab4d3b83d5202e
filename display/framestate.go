package display

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultHistory is how many frames FrameState keeps by default.
const DefaultHistory = 8

// FrameState hands FrameInfo snapshots from the render goroutine to the
// present goroutine. The lock is held only while copying.
type FrameState struct {
	mu      sync.Mutex
	infos   map[uint64]FrameInfo
	order   []uint64
	history int
	latest  uint64
	hasAny  bool
}

// NewFrameState keeps the last history frames. history < 1 uses
// DefaultHistory.
func NewFrameState(history int) *FrameState {
	if history < 1 {
		history = DefaultHistory
	}
	return &FrameState{
		infos:   make(map[uint64]FrameInfo, history),
		history: history,
	}
}

// Capture stores info under its frame index, evicting the oldest entry when
// full. Capturing an index twice replaces the earlier value.
func (s *FrameState) Capture(info FrameInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.infos[info.FrameIndex]; !exists {
		s.order = append(s.order, info.FrameIndex)
		if len(s.order) > s.history {
			delete(s.infos, s.order[0])
			s.order = s.order[1:]
		}
	}
	s.infos[info.FrameIndex] = info
	if !s.hasAny || info.FrameIndex >= s.latest {
		s.latest = info.FrameIndex
		s.hasAny = true
	}
}

// Snapshot returns a copy of the info captured for frameIndex.
func (s *FrameState) Snapshot(frameIndex uint64) (FrameInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.infos[frameIndex]
	return info, ok
}

// Latest returns the most recent capture.
func (s *FrameState) Latest() (FrameInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasAny {
		return FrameInfo{}, false
	}
	info, ok := s.infos[s.latest]
	return info, ok
}

// UpdatePresentPose replaces the present pose of a captured frame, as the
// present goroutine does right before submitting it.
func (s *FrameState) UpdatePresentPose(frameIndex uint64, pose mgl32.Mat4) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.infos[frameIndex]
	if !ok {
		return false
	}
	info.PresentPose = pose
	s.infos[frameIndex] = info
	return true
}

// Len returns the number of retained frames.
func (s *FrameState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.infos)
}
