// Package emotion aggregates facial-emotion frames during an interview.
// Detection itself runs client-side; this service only averages the
// per-frame probability maps that the browser reports.
package emotion

import (
	"math"
	"sync"
)

// Labels mirrors the detector's emotion set.
var Labels = []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// Frame is one detector reading: emotion label to probability.
type Frame map[string]float64

// Tracker accumulates frames per chat between average polls.
type Tracker struct {
	mu     sync.Mutex
	frames map[string][]Frame
}

func NewTracker() *Tracker {
	return &Tracker{frames: make(map[string][]Frame)}
}

// Record appends a frame for the chat. Empty frames are ignored.
func (t *Tracker) Record(chatID string, frame Frame) bool {
	if len(frame) == 0 {
		return false
	}

	t.mu.Lock()
	t.frames[chatID] = append(t.frames[chatID], frame)
	t.mu.Unlock()
	return true
}

// Average returns the mean probability per label since the last call and
// clears the chat's accumulator. With no recorded frames every label
// averages to zero.
func (t *Tracker) Average(chatID string) Frame {
	t.mu.Lock()
	frames := t.frames[chatID]
	delete(t.frames, chatID)
	t.mu.Unlock()

	averages := make(Frame, len(Labels))
	for _, label := range Labels {
		averages[label] = 0.0
	}
	if len(frames) == 0 {
		return averages
	}

	for _, frame := range frames {
		for _, label := range Labels {
			averages[label] += frame[label]
		}
	}

	count := float64(len(frames))
	for _, label := range Labels {
		averages[label] = math.Round(averages[label]/count*10000) / 10000
	}
	return averages
}

// Clear drops any buffered frames for the chat.
func (t *Tracker) Clear(chatID string) {
	t.mu.Lock()
	delete(t.frames, chatID)
	t.mu.Unlock()
}
