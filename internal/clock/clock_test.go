package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func TestFakeNowAndAdvance(t *testing.T) {
	c := NewFake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", c.Now(), epoch)
	}
	c.Advance(90 * time.Second)
	if got := c.Now().Sub(epoch); got != 90*time.Second {
		t.Fatalf("advanced %v, want 90s", got)
	}
}

func TestFakeAfterFuncFiresWhenDue(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	c.AfterFunc(10*time.Second, func() { fired++ })

	c.Advance(9 * time.Second)
	if fired != 0 {
		t.Fatal("fired too early")
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("expected 1 fire, got %d", fired)
	}
	c.Advance(time.Minute)
	if fired != 1 {
		t.Fatal("one-shot timer fired twice")
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeStopAfterFire(t *testing.T) {
	c := NewFake(epoch)
	tm := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	if tm.Stop() {
		t.Fatal("Stop after fire should report false")
	}
}

func TestFakeZeroDelayNeedsAdvance(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(-time.Second, func() { fired = true })
	if fired {
		t.Fatal("callback ran inside AfterFunc")
	}
	c.Advance(0)
	if !fired {
		t.Fatal("due callback should run on Advance(0)")
	}
}

func TestFakeOrderAndNowInsideCallback(t *testing.T) {
	c := NewFake(epoch)
	var order []int
	var seen []time.Duration
	c.AfterFunc(3*time.Second, func() { order = append(order, 3); seen = append(seen, c.Now().Sub(epoch)) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1); seen = append(seen, c.Now().Sub(epoch)) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 2); seen = append(seen, c.Now().Sub(epoch)) })

	c.Advance(5 * time.Second)
	want := []int{1, 2, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if seen[0] != time.Second || seen[2] != 3*time.Second {
		t.Fatalf("callbacks saw wrong times: %v", seen)
	}
}

func TestFakeChainedCallbacks(t *testing.T) {
	c := NewFake(epoch)
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(10 * time.Second)
	if ticks != 10 {
		t.Fatalf("expected 10 chained ticks, got %d", ticks)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending tick, got %d", c.Pending())
	}
}

func TestFakeSet(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(time.Hour, func() { fired = true })
	c.Set(epoch.Add(2 * time.Hour))
	if !fired {
		t.Fatal("Set past the deadline should fire")
	}
	c.Set(epoch)
	if !c.Now().Equal(epoch.Add(2 * time.Hour)) {
		t.Fatal("Set backwards should not move the clock")
	}
}

func TestRealAfterFunc(t *testing.T) {
	done := make(chan struct{})
	var c Clock = Real{}
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}

	tm := c.AfterFunc(time.Hour, func() {})
	if !tm.Stop() {
		t.Fatal("Stop on pending real timer should report true")
	}
}
