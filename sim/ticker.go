package sim

import (
	"sync"
)

// TickEvent is a generic event that almost all components can use to update
// their status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// WakeEvent resumes a ticking component at a scheduled time. It is kept
// separate from TickEvent so that a far-future wake never blocks the regular
// cycle-by-cycle tick chain.
type WakeEvent struct {
	EventBase
}

// MakeWakeEvent creates a new WakeEvent.
func MakeWakeEvent(handler Handler, time VTimeInSec) WakeEvent {
	evt := WakeEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler can help schedule tick events.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	nextTickTime VTimeInSec
	nextWakeTime VTimeInSec
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	ticker := new(TickScheduler)

	ticker.handler = handler
	ticker.Engine = engine
	ticker.Freq = freq
	ticker.nextTickTime = -1 // This will make sure the first tick is scheduled
	ticker.nextWakeTime = -1

	return ticker
}

// TickNow schedules a tick event at the current time.
func (t *TickScheduler) TickNow() {
	t.lock.Lock()
	time := t.CurrentTime()

	if t.nextTickTime >= time {
		t.lock.Unlock()
		return
	}

	t.nextTickTime = t.Freq.ThisTick(time)
	tick := MakeTickEvent(t.handler, t.nextTickTime)
	tick.secondary = t.secondary

	t.Engine.Schedule(tick)
	t.lock.Unlock()
}

// TickLater schedules a tick event at the cycle after the current time.
func (t *TickScheduler) TickLater() {
	t.lock.Lock()
	time := t.Freq.NextTick(t.CurrentTime())

	if t.nextTickTime >= time {
		t.lock.Unlock()
		return
	}

	t.nextTickTime = time
	tick := MakeTickEvent(t.handler, t.nextTickTime)
	tick.secondary = t.secondary

	t.Engine.Schedule(tick)
	t.lock.Unlock()
}

// TickAt schedules a wake at the given time. It is used to resume a
// component after a known delay, such as the processing time of an endpoint.
// A wake does not interact with the tick chain: ticks triggered by arriving
// data or returning credit are still scheduled while a wake is pending.
// Requesting a wake at or after an already-pending one is a no-op.
func (t *TickScheduler) TickAt(time VTimeInSec) {
	t.lock.Lock()
	time = t.Freq.NoEarlierThan(time)
	now := t.CurrentTime()

	if t.nextWakeTime > now && t.nextWakeTime <= time {
		t.lock.Unlock()
		return
	}

	t.nextWakeTime = time
	wake := MakeWakeEvent(t.handler, time)
	wake.secondary = t.secondary

	t.Engine.Schedule(wake)
	t.lock.Unlock()
}

// CurrentTime returns the current time of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// TickingComponent is a type of component that updates states from cycle to
// cycle. A programmer only needs to write a tick function for a ticking
// component.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// Handle triggers the tick function of the TickingComponent. A wake is
// funneled through TickNow so that it cannot duplicate a tick that the
// regular chain already scheduled for the same cycle.
func (c *TickingComponent) Handle(evt Event) error {
	if _, isWake := evt.(WakeEvent); isWake {
		c.TickNow()
		return nil
	}

	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}
