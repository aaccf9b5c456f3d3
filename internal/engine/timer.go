package engine

import (
	"sync"
	"time"
)

const (
	maxRestSeconds    = 600
	restAdjustStep    = 15
	completeToneDelay = 500 * time.Millisecond
)

// RestTimer is a one-second-granularity countdown between sets.
// It emits audible cue tones through the notifier at 3/2/1 seconds and a
// finish tone at zero, then fires onComplete after a short delay so the
// sound can play out. Skip bypasses the finish tone and fires onSkip.
//
// The timer owns one goroutine; Stop releases it and any pending
// completion callback no matter how the timer exits.
type RestTimer struct {
	mu       sync.Mutex
	timeLeft int
	paused   bool
	finished bool // countdown reached zero or was skipped/stopped

	notifier   Notifier
	onComplete func()
	onSkip     func()

	interval      time.Duration // tick period, shortened in tests
	completeDelay time.Duration
	completeTimer *time.Timer
	stopCh        chan struct{}
	stopOnce      sync.Once
}

func NewRestTimer(duration int, notifier Notifier, onComplete, onSkip func()) *RestTimer {
	if duration < 0 {
		duration = 0
	}
	if duration > maxRestSeconds {
		duration = maxRestSeconds
	}
	return &RestTimer{
		timeLeft:      duration,
		notifier:      notifier,
		onComplete:    onComplete,
		onSkip:        onSkip,
		interval:      time.Second,
		completeDelay: completeToneDelay,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the ticking goroutine.
func (t *RestTimer) Start() {
	go t.loop()
}

func (t *RestTimer) loop() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			if t.Tick() {
				return
			}
		}
	}
}

// Tick advances the countdown by one second. It returns true once the
// countdown has finished and the goroutine should exit. Exposed so tests
// can drive the timer without real time.
func (t *RestTimer) Tick() bool {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return true
	}
	if t.paused {
		t.mu.Unlock()
		return false
	}

	t.timeLeft--
	left := t.timeLeft
	if left > 0 {
		t.mu.Unlock()
		switch left {
		case 3:
			t.notify(ToneCueLow)
		case 2:
			t.notify(ToneCueMid)
		case 1:
			t.notify(ToneCueHigh)
		}
		return false
	}

	t.timeLeft = 0
	t.finished = true
	if t.onComplete != nil {
		t.completeTimer = time.AfterFunc(t.completeDelay, t.onComplete)
	}
	t.mu.Unlock()

	t.notify(ToneFinish)
	return true
}

func (t *RestTimer) notify(tone Tone) {
	if t.notifier != nil {
		t.notifier.Notify(Event{Type: EventTone, Tone: tone})
	}
}

// Pause stops ticking without resetting the remaining time.
func (t *RestTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
}

func (t *RestTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
}

// AddTime adjusts the remaining time by delta seconds, clamped to
// [0, maxRestSeconds]. Subtracting is disabled once 15 seconds or fewer
// remain so the control can never push the countdown negative.
func (t *RestTimer) AddTime(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	if delta < 0 && t.timeLeft <= restAdjustStep {
		return
	}
	t.timeLeft += delta
	if t.timeLeft < 0 {
		t.timeLeft = 0
	}
	if t.timeLeft > maxRestSeconds {
		t.timeLeft = maxRestSeconds
	}
}

// Skip ends the countdown immediately, invoking onSkip and bypassing the
// finish tone and onComplete.
func (t *RestTimer) Skip() {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.mu.Unlock()

	t.stopLoop()
	if t.onSkip != nil {
		t.onSkip()
	}
}

// Stop tears the timer down without invoking either callback.
func (t *RestTimer) Stop() {
	t.mu.Lock()
	t.finished = true
	if t.completeTimer != nil {
		t.completeTimer.Stop()
	}
	t.mu.Unlock()
	t.stopLoop()
}

func (t *RestTimer) stopLoop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// TimeLeft reports the remaining seconds.
func (t *RestTimer) TimeLeft() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeLeft
}

// Paused reports whether ticking is suspended.
func (t *RestTimer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}
