package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateEmpty, "Empty"},
		{StateLoading, "Loading"},
		{StateReady, "Ready"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateEnded, "Ended"},
		{StateError, "Error"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_CanControl(t *testing.T) {
	for _, s := range []State{StateLoading, StateReady, StatePlaying, StatePaused, StateEnded} {
		if !s.CanControl() {
			t.Errorf("%v.CanControl() = false, want true", s)
		}
	}
	for _, s := range []State{StateEmpty, StateError} {
		if s.CanControl() {
			t.Errorf("%v.CanControl() = true, want false", s)
		}
	}
}
