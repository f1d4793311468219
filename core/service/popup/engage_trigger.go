package popup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"engage_server/core/domain"
	"engage_server/core/port/out"
	"engage_server/pkg/logger"
)

// =============================================================================
// Trigger Coordinator - per (popup, visitor, session) state machine
// =============================================================================

// TriggerState enumerates the lifecycle of one popup offer.
type TriggerState int

const (
	// StateIdle: config exists, trigger not armed yet.
	StateIdle TriggerState = iota
	// StateArmed: frequency gate passed, waiting on trigger conditions.
	StateArmed
	// StateEligible: all gating conditions satisfied, display imminent.
	StateEligible
	// StateDisplayed: popup shown; the only transition left is Closed.
	StateDisplayed
	// StateClosed: terminal. No signal leaves this state.
	StateClosed
)

func (s TriggerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateEligible:
		return "eligible"
	case StateDisplayed:
		return "displayed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// publishTimeout bounds the fire-and-forget telemetry goroutines.
const publishTimeout = 5 * time.Second

// Coordinator drives the trigger state machine for one popup offered to
// one visitor in one session. All methods are safe for concurrent use;
// signals arriving in the wrong state are ignored rather than erroring,
// since the embed script cannot be trusted to sequence them.
//
// Present trigger conditions combine with AND semantics and the later
// condition completes the gate. Exit intent is an independent OR path
// that displays immediately. A coordinator displays at most once, ever.
type Coordinator struct {
	mu sync.Mutex

	cfg       *domain.PopupConfig
	visitorID uuid.UUID
	sessionID uuid.UUID
	url       string

	state     TriggerState
	scrollMet bool
	timerMet  bool
	timer     *time.Timer

	freq   out.FrequencyStore
	events out.EventProducer
	newID  func() int64

	log *logger.Logger
	now func() time.Time
}

// NewCoordinator creates a coordinator in the Idle state. events and
// freq may be nil in degraded deployments; the machine still runs, it
// just stops recording. newID supplies telemetry event ids.
func NewCoordinator(cfg *domain.PopupConfig, visitorID, sessionID uuid.UUID, url string, freq out.FrequencyStore, events out.EventProducer, newID func() int64) *Coordinator {
	if newID == nil {
		newID = func() int64 { return 0 }
	}
	return &Coordinator{
		cfg:       cfg,
		visitorID: visitorID,
		sessionID: sessionID,
		url:       url,
		state:     StateIdle,
		freq:      freq,
		events:    events,
		newID:     newID,
		log:       logger.Default().WithField("component", "trigger"),
		now:       time.Now,
	}
}

// State returns the current machine state.
func (c *Coordinator) State() TriggerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Arm runs the frequency gate and, if it passes, starts waiting on the
// trigger conditions. Returns true when the popup armed. A visitor at
// their display cap, or still inside the cooldown window, is rejected
// and the machine closes. Frequency store failures fail open: showing a
// popup slightly too often beats never showing one.
func (c *Coordinator) Arm(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return c.state == StateArmed, nil
	}

	if !c.passesFrequencyGate(ctx) {
		c.state = StateClosed
		return false, nil
	}

	c.state = StateArmed

	// Absent conditions are vacuously met.
	rule := c.cfg.Trigger
	c.scrollMet = rule.ScrollPercentage == nil
	c.timerMet = rule.TimeDelayMs == nil

	if rule.TimeDelayMs != nil {
		delay := time.Duration(*rule.TimeDelayMs) * time.Millisecond
		c.timer = time.AfterFunc(delay, func() { c.OnTimerFired() })
	}

	// Both conditions absent and no exit-intent wait: display right away.
	if c.scrollMet && c.timerMet {
		c.displayLocked()
	}
	return true, nil
}

// passesFrequencyGate checks the display cap and cooldown. Caller holds
// the lock. Anonymous visitors all share uuid.Nil, so per-visitor
// bookkeeping does not apply to them and the gate always passes.
func (c *Coordinator) passesFrequencyGate(ctx context.Context) bool {
	if c.freq == nil || c.visitorID == uuid.Nil {
		return true
	}

	state, err := c.freq.Get(ctx, c.visitorID, c.cfg.ID)
	if err != nil {
		c.log.WithContext(ctx).WithError(err).Warn("frequency lookup failed, arming anyway")
		return true
	}

	if state.DisplayCount >= c.cfg.Targeting.MaxDisplaysPerUser {
		return false
	}
	if state.DisplayCount > 0 && c.now().Sub(state.LastShownAt) < c.cfg.Targeting.CooldownPeriod {
		return false
	}
	return true
}

// OnScroll reports scroll depth as a percentage of the page. Returns
// true when this signal completed the gate and displayed the popup.
func (c *Coordinator) OnScroll(percentage float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateArmed {
		return false
	}
	rule := c.cfg.Trigger
	if rule.ScrollPercentage != nil && percentage >= *rule.ScrollPercentage {
		c.scrollMet = true
	}
	return c.maybeDisplayLocked()
}

// OnTimerFired marks the time-delay condition satisfied. Wired to the
// internal timer; exported so transports replaying elapsed time can
// drive it directly.
func (c *Coordinator) OnTimerFired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateArmed {
		return false
	}
	c.timerMet = true
	return c.maybeDisplayLocked()
}

// OnExitIntent fires when the pointer leaves toward the browser chrome.
// It bypasses the scroll and timer conditions entirely.
func (c *Coordinator) OnExitIntent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateArmed {
		return false
	}
	if !c.cfg.Trigger.ExitIntent {
		return false
	}
	c.displayLocked()
	return true
}

// Dismiss closes a displayed popup. Signals in any other state are
// dropped. All close reasons land in the same terminal state.
func (c *Coordinator) Dismiss(reason domain.CloseReason) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisplayed {
		return false
	}
	c.state = StateClosed
	c.publish(out.EventPopupClosed, string(reason))
	return true
}

// Abort tears the machine down without a display, stopping any pending
// timer. Used when the page unloads before the trigger fires.
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisplayed || c.state == StateClosed {
		return
	}
	c.stopTimerLocked()
	c.state = StateClosed
}

// maybeDisplayLocked displays when every present condition is met.
// Caller holds the lock.
func (c *Coordinator) maybeDisplayLocked() bool {
	if !c.scrollMet || !c.timerMet {
		return false
	}
	c.displayLocked()
	return true
}

// displayLocked performs the Armed -> Eligible -> Displayed transition,
// records the display and publishes telemetry. Caller holds the lock.
func (c *Coordinator) displayLocked() {
	c.stopTimerLocked()
	c.state = StateEligible

	if c.freq != nil && c.visitorID != uuid.Nil {
		shownAt := c.now().UTC()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := c.freq.RecordDisplay(ctx, c.visitorID, c.cfg.ID, shownAt); err != nil {
				c.log.WithError(err).Error("recording display failed for popup %d", c.cfg.ID)
			}
		}()
	}

	c.state = StateDisplayed
	c.publish(out.EventPopupDisplayed, "")
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// publish sends one telemetry event without blocking the trigger path.
// Caller holds the lock; the send itself happens off-goroutine.
func (c *Coordinator) publish(eventType out.TriggerEventType, closeReason string) {
	if c.events == nil {
		return
	}

	event := &out.TriggerEvent{
		EventID:     c.newID(),
		EventType:   eventType,
		PopupID:     c.cfg.ID,
		SessionID:   c.sessionID.String(),
		VisitorID:   c.visitorID.String(),
		CloseReason: closeReason,
		URL:         c.url,
		Timestamp:   c.now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := c.events.PublishTriggerEvent(ctx, event); err != nil {
			c.log.WithError(err).Warn("publishing %s event failed for popup %d", eventType, c.cfg.ID)
		}
	}()
}
