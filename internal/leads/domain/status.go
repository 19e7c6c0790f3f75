// Package domain defines the lead outreach lifecycle: the canonical status
// enumeration, the channel set, and the transition rules the engine enforces.
package domain

// Status represents the lifecycle state of a lead.
type Status string

const (
	StatusNew          Status = "new"
	StatusResearchDone Status = "research_done"
	StatusReadyToSend  Status = "ready_to_send"
	StatusSendingEmail Status = "sending_email"
	StatusSendingSMS   Status = "sending_sms"
	StatusCalling      Status = "calling"
	StatusContacted    Status = "contacted"
	StatusNurture      Status = "nurture"
	StatusClosed       Status = "closed"
	StatusFailed       Status = "failed"
)

// AllStatuses lists every valid status value.
var AllStatuses = []Status{
	StatusNew,
	StatusResearchDone,
	StatusReadyToSend,
	StatusSendingEmail,
	StatusSendingSMS,
	StatusCalling,
	StatusContacted,
	StatusNurture,
	StatusClosed,
	StatusFailed,
}

// InFlightStatuses lists the statuses that carry a claim.
var InFlightStatuses = []Status{StatusSendingEmail, StatusSendingSMS, StatusCalling}

// transitions maps each status to the statuses it may move to. In-flight
// statuses are entered only through ClaimBatch, never through an operator
// transition, so they do not appear as targets here.
var transitions = map[Status][]Status{
	StatusNew:          {StatusResearchDone},
	StatusResearchDone: {StatusReadyToSend},
	StatusReadyToSend:  {StatusNurture, StatusClosed},
	StatusSendingEmail: {StatusContacted, StatusReadyToSend, StatusFailed},
	StatusSendingSMS:   {StatusContacted, StatusReadyToSend, StatusFailed},
	StatusCalling:      {StatusContacted, StatusReadyToSend, StatusFailed},
	StatusContacted:    {StatusNurture, StatusClosed},
	StatusNurture:      {StatusReadyToSend, StatusClosed},
	StatusFailed:       {},
	StatusClosed:       {},
}

// IsValid reports whether s is one of the canonical status values.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsInFlight reports whether s is a claimed, mid-send status.
func (s Status) IsInFlight() bool {
	switch s {
	case StatusSendingEmail, StatusSendingSMS, StatusCalling:
		return true
	}
	return false
}

// CanTransitionTo reports whether an operator transition from s to next is
// allowed by the state machine.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Channel identifies an outbound contact channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// AllChannels lists every supported channel.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelVoice}

// IsValid reports whether c is a supported channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelVoice:
		return true
	}
	return false
}

// InFlightStatus returns the claimed status a lead enters while a send on
// this channel is in progress.
func (c Channel) InFlightStatus() Status {
	switch c {
	case ChannelEmail:
		return StatusSendingEmail
	case ChannelSMS:
		return StatusSendingSMS
	case ChannelVoice:
		return StatusCalling
	}
	return ""
}
