package circuitbreaker

import (
	"testing"
	"time"
)

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Fatal("circuit opened before threshold")
	}
	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatal("circuit did not open at threshold")
	}
	if cb.AllowRequest() {
		t.Error("open circuit should reject requests")
	}
}

func TestSuccessResetsFailureCountWhileClosed(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Error("interleaved successes should keep the circuit closed")
	}
}

func TestHalfOpenProbeAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatal("circuit should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.AllowRequest() {
		t.Fatal("expired timeout should allow a probe")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.GetState())
	}

	cb.RecordSuccess()
	if cb.GetState() != StateHalfOpen {
		t.Error("one success should not close a two-success circuit")
	}
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Error("circuit should close after success threshold")
	}
}

func TestFailureDuringHalfOpenReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if !cb.AllowRequest() {
		t.Fatal("expired timeout should allow a probe")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Error("failed probe should reopen the circuit")
	}
}

func TestStateChangeCallback(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Minute)

	var transitions [][2]State
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, [2]State{from, to})
	})

	cb.RecordFailure()
	if len(transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(transitions))
	}
	if transitions[0] != [2]State{StateClosed, StateOpen} {
		t.Errorf("transition = %v", transitions[0])
	}
}
