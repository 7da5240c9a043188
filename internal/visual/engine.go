// Package visual draws the audio visualisation bars. There is one Engine per
// session: it is initialised on first use and torn down when the viewer is
// finally closed.
package visual

import (
	"errors"
	"io"
	"sync"
	"time"
)

// sampleWindow bounds how much of a payload the engine keeps.
const sampleWindow = 1 << 20

var ErrNoSignal = errors.New("no audio data to visualise")

// Engine derives deterministic amplitude bars from an audio payload.
type Engine struct {
	mu      sync.Mutex
	inits   int
	active  bool
	samples []byte
	rate    int // bytes per second of playback, estimated
}

// Inits reports how many times the engine has been initialised.
func (e *Engine) Inits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inits
}

// Active reports whether the engine is initialised.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Init initialises the engine on first use; later calls are no-ops.
func (e *Engine) Init() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return
	}
	e.active = true
	e.inits++
}

// Load replaces the current signal with up to sampleWindow bytes of r.
// size is the full payload size, used to estimate the playback rate.
func (e *Engine) Load(r io.Reader, size int64) error {
	buf, err := io.ReadAll(io.LimitReader(r, sampleWindow))
	if err != nil {
		return err
	}
	if len(buf) == 0 {
		return ErrNoSignal
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = buf
	// Assume a 128 kbit/s stream.
	e.rate = 16 * 1024
	if size > 0 && size < int64(e.rate) {
		e.rate = int(size)
	}
	return nil
}

// Bars returns n bar heights in [0, height] for playback position pos.
func (e *Engine) Bars(pos time.Duration, n, height int) []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	bars := make([]int, n)
	if !e.active || len(e.samples) == 0 || n <= 0 || height <= 0 {
		return bars
	}
	offset := int(pos.Seconds()*float64(e.rate)) % len(e.samples)
	step := max(1, len(e.samples)/(n*64))
	for i := range bars {
		idx := (offset + i*step*7) % len(e.samples)
		v := int(e.samples[idx])
		// Fold to a signed-looking magnitude so flat regions read as quiet.
		if v > 127 {
			v = 255 - v
		}
		bars[i] = v * height / 128
		if bars[i] > height {
			bars[i] = height
		}
	}
	return bars
}

// Teardown releases the signal and deactivates the engine.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
	e.samples = nil
}
