// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"slices"
	"testing"
	"time"
)

func TestRecordingTimer_FiresImmediately(t *testing.T) {
	t.Parallel()

	timer := NewRecordingTimer()
	timer.Start(2 * time.Second)

	select {
	case <-timer.C():
	default:
		t.Fatal("RecordingTimer did not fire on Start")
	}

	timer.Start(4 * time.Second)
	<-timer.C()

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if got := timer.Delays(); !slices.Equal(got, want) {
		t.Errorf("Delays() = %v, want %v", got, want)
	}
}

func TestRecordingTimer_Held(t *testing.T) {
	t.Parallel()

	timer := NewHeldTimer()
	timer.Start(time.Second)

	if d := <-timer.Started(); d != time.Second {
		t.Errorf("Started() delivered %v, want 1s", d)
	}

	select {
	case <-timer.C():
		t.Fatal("held timer fired without Fire")
	default:
	}

	timer.Fire()
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("held timer did not fire after Fire")
	}
}
