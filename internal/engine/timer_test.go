package engine

import (
	"testing"
	"time"
)

// drive advances the timer n ticks without waiting on real time.
func drive(t *RestTimer, n int) {
	for i := 0; i < n; i++ {
		t.Tick()
	}
}

func tonesOf(events []Event) []Tone {
	var tones []Tone
	for _, e := range events {
		if e.Type == EventTone {
			tones = append(tones, e.Tone)
		}
	}
	return tones
}

func TestRestTimerCueTones(t *testing.T) {
	buf := NewEventBuffer(16)
	timer := NewRestTimer(5, buf, nil, nil)

	drive(timer, 2) // 5 -> 3
	tones := tonesOf(buf.Drain())
	if len(tones) != 1 || tones[0] != ToneCueLow {
		t.Fatalf("at 3s left got tones %v, want [cue_low]", tones)
	}

	drive(timer, 1) // 3 -> 2
	tones = tonesOf(buf.Drain())
	if len(tones) != 1 || tones[0] != ToneCueMid {
		t.Fatalf("at 2s left got tones %v, want [cue_mid]", tones)
	}

	drive(timer, 1) // 2 -> 1
	tones = tonesOf(buf.Drain())
	if len(tones) != 1 || tones[0] != ToneCueHigh {
		t.Fatalf("at 1s left got tones %v, want [cue_high]", tones)
	}

	drive(timer, 1) // 1 -> 0
	tones = tonesOf(buf.Drain())
	if len(tones) != 1 || tones[0] != ToneFinish {
		t.Fatalf("at 0s got tones %v, want [finish]", tones)
	}
	if timer.TimeLeft() != 0 {
		t.Errorf("time left = %d, want 0", timer.TimeLeft())
	}
}

func TestRestTimerCompletesOnceAfterDelay(t *testing.T) {
	done := make(chan struct{}, 4)
	timer := NewRestTimer(2, nil, func() { done <- struct{}{} }, nil)
	timer.completeDelay = time.Millisecond

	drive(timer, 2)
	// Extra ticks after finishing must not rearm the callback.
	drive(timer, 3)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onComplete never fired")
	}
	select {
	case <-done:
		t.Fatal("onComplete fired more than once")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRestTimerPauseHoldsTime(t *testing.T) {
	timer := NewRestTimer(30, nil, nil, nil)

	drive(timer, 5)
	timer.Pause()
	drive(timer, 10)
	if got := timer.TimeLeft(); got != 25 {
		t.Errorf("time left = %d, want 25 while paused", got)
	}
	if !timer.Paused() {
		t.Error("timer should report paused")
	}

	timer.Resume()
	drive(timer, 5)
	if got := timer.TimeLeft(); got != 20 {
		t.Errorf("time left = %d, want 20 after resume", got)
	}
}

func TestRestTimerAddTime(t *testing.T) {
	timer := NewRestTimer(60, nil, nil, nil)

	timer.AddTime(15)
	if got := timer.TimeLeft(); got != 75 {
		t.Errorf("time left = %d, want 75", got)
	}

	timer.AddTime(15)
	timer.AddTime(-15)
	if got := timer.TimeLeft(); got != 75 {
		t.Errorf("time left = %d, want 75", got)
	}

	// Clamp at the ceiling.
	timer.AddTime(10000)
	if got := timer.TimeLeft(); got != maxRestSeconds {
		t.Errorf("time left = %d, want clamp at %d", got, maxRestSeconds)
	}
}

func TestRestTimerSubtractDisabledNearZero(t *testing.T) {
	timer := NewRestTimer(10, nil, nil, nil)
	timer.AddTime(-15)
	if got := timer.TimeLeft(); got != 10 {
		t.Errorf("time left = %d, want 10; subtract must be a no-op at <=15s", got)
	}

	timer = NewRestTimer(16, nil, nil, nil)
	timer.AddTime(-15)
	if got := timer.TimeLeft(); got != 1 {
		t.Errorf("time left = %d, want 1", got)
	}
}

func TestRestTimerSkip(t *testing.T) {
	buf := NewEventBuffer(16)
	completed := false
	skipped := false
	timer := NewRestTimer(60, buf, func() { completed = true }, func() { skipped = true })

	timer.Skip()

	if !skipped {
		t.Error("onSkip should fire")
	}
	if completed {
		t.Error("onComplete must not fire on skip")
	}
	if tones := tonesOf(buf.Drain()); len(tones) != 0 {
		t.Errorf("skip should bypass tones, got %v", tones)
	}

	// Further control calls are no-ops once finished.
	timer.AddTime(30)
	if got := timer.TimeLeft(); got != 60 {
		t.Errorf("time left = %d after finished AddTime, want 60", got)
	}
}

func TestRestTimerNegativeDurationClamps(t *testing.T) {
	timer := NewRestTimer(-5, nil, nil, nil)
	if got := timer.TimeLeft(); got != 0 {
		t.Errorf("time left = %d, want 0", got)
	}
}
