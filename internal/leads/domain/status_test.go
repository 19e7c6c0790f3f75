package domain

import "testing"

func TestStatusEnumerationIsClosed(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.IsValid() {
			t.Fatalf("status %q listed but not valid", s)
		}
	}

	for _, s := range []Status{"", "working", "ready", "processing_email", "funnel_stage"} {
		if s.IsValid() {
			t.Fatalf("status %q should not be valid", s)
		}
	}
}

func TestInFlightStatuses(t *testing.T) {
	for _, s := range InFlightStatuses {
		if !s.IsInFlight() {
			t.Fatalf("%q should be in-flight", s)
		}
	}
	for _, s := range []Status{StatusNew, StatusReadyToSend, StatusContacted, StatusFailed} {
		if s.IsInFlight() {
			t.Fatalf("%q should not be in-flight", s)
		}
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusNew, StatusResearchDone, true},
		{StatusNew, StatusReadyToSend, false}, // never skip states
		{StatusResearchDone, StatusReadyToSend, true},
		{StatusReadyToSend, StatusSendingEmail, false}, // only via ClaimBatch
		{StatusReadyToSend, StatusClosed, true},
		{StatusSendingEmail, StatusContacted, true},
		{StatusSendingEmail, StatusReadyToSend, true},
		{StatusCalling, StatusFailed, true},
		{StatusContacted, StatusNurture, true},
		{StatusNurture, StatusReadyToSend, true},
		{StatusFailed, StatusContacted, false},
		{StatusClosed, StatusReadyToSend, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestChannelInFlightStatus(t *testing.T) {
	cases := map[Channel]Status{
		ChannelEmail: StatusSendingEmail,
		ChannelSMS:   StatusSendingSMS,
		ChannelVoice: StatusCalling,
	}
	for channel, want := range cases {
		if got := channel.InFlightStatus(); got != want {
			t.Errorf("channel %s in-flight status = %s, want %s", channel, got, want)
		}
		if !channel.IsValid() {
			t.Errorf("channel %s should be valid", channel)
		}
	}
	if Channel("fax").IsValid() {
		t.Error("fax should not be a valid channel")
	}
}

func TestLeadHasContactFor(t *testing.T) {
	email := "a@b.co"
	phone := "+14155552671"
	lead := Lead{Email: &email}
	if !lead.HasContactFor(ChannelEmail) {
		t.Error("lead with email should be contactable by email")
	}
	if lead.HasContactFor(ChannelSMS) || lead.HasContactFor(ChannelVoice) {
		t.Error("lead without phone should not be contactable by sms/voice")
	}
	lead.Phone = &phone
	if !lead.HasContactFor(ChannelVoice) {
		t.Error("lead with phone should be contactable by voice")
	}
}
