package outreach

import (
	"strings"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/sender"
)

// TemplateConfig provides the per-channel message templates. Templates use
// {company} as the only placeholder; real copywriting lives with the
// provider configuration, not in this service.
type TemplateConfig interface {
	GetEmailSubjectTemplate() string
	GetEmailBodyTemplate() string
	GetSMSBodyTemplate() string
	GetVoiceScriptTemplate() string
}

// composeMessage renders the channel message for a lead.
func composeMessage(cfg TemplateConfig, lead domain.Lead, channel domain.Channel) sender.Message {
	fill := strings.NewReplacer("{company}", lead.Company)

	switch channel {
	case domain.ChannelEmail:
		return sender.Message{
			Subject: fill.Replace(cfg.GetEmailSubjectTemplate()),
			Body:    fill.Replace(cfg.GetEmailBodyTemplate()),
		}
	case domain.ChannelSMS:
		return sender.Message{Body: fill.Replace(cfg.GetSMSBodyTemplate())}
	case domain.ChannelVoice:
		return sender.Message{Body: fill.Replace(cfg.GetVoiceScriptTemplate())}
	}
	return sender.Message{}
}
