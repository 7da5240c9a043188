package viewer

import (
	"fmt"
	"math"
	"time"
)

// VolumeStep is the change applied by one volume key press.
const VolumeStep = 0.1

// Media is the playback sub-state of audio and image files.
type Media struct {
	Playing  bool
	Muted    bool
	Volume   float64
	Position time.Duration

	toast        string
	toastVisible bool
	toastSeq     uint64
}

func newMedia() Media {
	return Media{Volume: 1}
}

// reset clears per-file playback but keeps the listener's volume and mute.
func (m *Media) reset() {
	m.Playing = false
	m.Position = 0
	m.toastVisible = false
	m.toast = ""
}

// ToggleMute flips mute and shows a confirmation. It returns the toast
// sequence number to hide later.
func (m *Media) ToggleMute() uint64 {
	m.Muted = !m.Muted
	if m.Muted {
		return m.showToast("muted")
	}
	return m.showToast(fmt.Sprintf("volume %d%%", m.percent()))
}

// AdjustVolume changes the volume by delta, clamped to [0, 1]. Any upward
// change unmutes.
func (m *Media) AdjustVolume(delta float64) uint64 {
	v := math.Round((m.Volume+delta)*10) / 10
	m.Volume = math.Max(0, math.Min(1, v))
	if delta > 0 && m.Muted {
		m.Muted = false
	}
	return m.showToast(fmt.Sprintf("volume %d%%", m.percent()))
}

func (m *Media) percent() int {
	return int(math.Round(m.Volume * 100))
}

// showToast replaces any visible confirmation; the new sequence number makes
// hide requests for older toasts stale, which restarts the timer.
func (m *Media) showToast(text string) uint64 {
	m.toastSeq++
	m.toast = text
	m.toastVisible = true
	return m.toastSeq
}

// HideToast hides the confirmation if seq is still the latest.
func (m *Media) HideToast(seq uint64) bool {
	if seq != m.toastSeq || !m.toastVisible {
		return false
	}
	m.toastVisible = false
	return true
}

// Toast returns the visible confirmation, if any.
func (m *Media) Toast() (string, bool) {
	return m.toast, m.toastVisible
}
