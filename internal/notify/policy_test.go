package notify

import (
	"slices"
	"testing"
)

func TestDescribeEnabledAlert(t *testing.T) {
	d := Describe("Ada", "lunch?", "alert-1", 1700000000000, 7, true, true)

	if d.Channel != ChannelAlert {
		t.Errorf("channel = %q, want %q", d.Channel, ChannelAlert)
	}
	if d.Handle != 7 {
		t.Errorf("handle = %d, want 7", d.Handle)
	}
	if !d.Important {
		t.Error("important flag dropped")
	}
	if d.Missed {
		t.Error("missed should be false with notifications enabled")
	}
	if d.Body != "lunch?" {
		t.Errorf("body = %q", d.Body)
	}
	if d.AlertID != "alert-1" || d.Timestamp != 1700000000000 {
		t.Errorf("alert id/timestamp = %q/%d, want threaded through", d.AlertID, d.Timestamp)
	}

	for _, a := range []string{ActionReply, ActionMarkAsRead, ActionSilence} {
		if !slices.Contains(d.Actions, a) {
			t.Errorf("missing action %q", a)
		}
	}
}

func TestDescribeDisabledRoutesToMissed(t *testing.T) {
	d := Describe("Ada", "lunch?", "alert-1", 1, 7, true, false)

	if d.Channel != ChannelMissed {
		t.Errorf("channel = %q, want %q", d.Channel, ChannelMissed)
	}
	if !d.Missed {
		t.Error("missed flag not set")
	}
	if !d.Important {
		t.Error("missed routing must not strip the important flag")
	}
	if slices.Contains(d.Actions, ActionSilence) {
		t.Error("silence action offered on a missed alert")
	}
	for _, a := range []string{ActionReply, ActionMarkAsRead} {
		if !slices.Contains(d.Actions, a) {
			t.Errorf("missing action %q", a)
		}
	}
}

func TestDescribeEmptyMessageGetsDefaultBody(t *testing.T) {
	d := Describe("Ada", "", "a1", 1, 7, false, true)
	if d.Body != DefaultBody {
		t.Errorf("body = %q, want %q", d.Body, DefaultBody)
	}
}

func TestDescribeSameHandleForSameConversation(t *testing.T) {
	a := Describe("Ada", "first", "a1", 1, 7, false, true)
	b := Describe("Ada", "second", "a2", 2, 7, false, true)
	if a.Handle != b.Handle {
		t.Errorf("handles differ: %d, %d", a.Handle, b.Handle)
	}
}

func TestDescribeSilenced(t *testing.T) {
	d := DescribeSilenced("Ada", "lunch?", "alert-1", 7)

	if d.Handle != 7 {
		t.Errorf("handle = %d, want the original slot", d.Handle)
	}
	if slices.Contains(d.Actions, ActionSilence) {
		t.Error("silenced alert must not offer silence again")
	}
	for _, a := range []string{ActionReply, ActionMarkAsRead} {
		if !slices.Contains(d.Actions, a) {
			t.Errorf("missing action %q", a)
		}
	}
	if d.Important {
		t.Error("silenced alerts never escalate")
	}
	if d.AlertID != "alert-1" {
		t.Errorf("alert id = %q", d.AlertID)
	}
}

func TestDescribeSendFailure(t *testing.T) {
	d := DescribeSendFailure("ada", "rate limited, try again later", 11)

	if d.Handle != 11 {
		t.Errorf("handle = %d, want 11", d.Handle)
	}
	if d.Body != "rate limited, try again later" {
		t.Errorf("body = %q", d.Body)
	}
	if len(d.Actions) != 0 {
		t.Errorf("failure notice should carry no actions, got %v", d.Actions)
	}
}

func TestDescribeFriendRequest(t *testing.T) {
	d := DescribeFriendRequest("Carol", 9)

	if d.Channel != ChannelFriendRequest {
		t.Errorf("channel = %q, want %q", d.Channel, ChannelFriendRequest)
	}
	if len(d.Actions) != 0 {
		t.Errorf("friend request should carry no actions, got %v", d.Actions)
	}
	if d.Important {
		t.Error("friend requests never escalate")
	}
}
