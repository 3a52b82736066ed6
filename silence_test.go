package main

import "testing"

func holdMonitor() *silenceMonitor {
	return newSilenceMonitor(func() bool { return false })
}

func toggleMonitor() *silenceMonitor {
	return newSilenceMonitor(func() bool { return true })
}

func feedN(m *silenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := holdMonitor()
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick is the 8 second mark
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := holdMonitor()
	feedN(m, false, 80)

	for i := 0; i < 80; i++ {
		if ev := m.Tick(true); ev == SilenceWarnClear {
			return
		}
	}
	t.Fatal("expected SilenceWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := holdMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestToggleRepeatCue(t *testing.T) {
	m := toggleMonitor()
	feedN(m, false, 80)
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			return
		}
	}
	t.Fatal("expected SilenceRepeat in toggle mode")
}

func TestToggleAutoClose(t *testing.T) {
	m := toggleMonitor()
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == SilenceAutoClose {
			return
		}
	}
	t.Fatal("expected SilenceAutoClose within 400 ticks")
}

func TestNoAutoCloseWhileHeld(t *testing.T) {
	m := holdMonitor()
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == SilenceAutoClose {
			t.Fatalf("unexpected auto-close for held recording at tick %d", i)
		}
	}
}

func TestAutoClosePreventedBySpeech(t *testing.T) {
	m := toggleMonitor()
	for i := 0; i < 500; i++ {
		speech := i%10 < 7
		if ev := m.Tick(speech); ev == SilenceAutoClose {
			t.Fatalf("unexpected auto-close with speech at tick %d", i)
		}
	}
}

func TestNoRepeatWhileHeld(t *testing.T) {
	m := holdMonitor()
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			t.Fatalf("unexpected SilenceRepeat for held recording at tick %d", i)
		}
	}
}

func TestWarnOnlyOnce(t *testing.T) {
	m := holdMonitor()
	warns := 0
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 SilenceWarn, got %d", warns)
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := holdMonitor()
	feedN(m, false, 80)

	// VAD false positives below the clear threshold must not clear
	for i := 0; i < 80; i++ {
		speech := i%10 == 0 // 10%, below speechClearRatio
		if ev := m.Tick(speech); ev == SilenceWarnClear {
			t.Fatal("warning cleared by sparse noise")
		}
	}
}
