package safety

import "github.com/tbourn/wellness-chat-backend/internal/domain"

// Resource is a crisis support line shown to the user.
type Resource struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Available string `json:"available"`
}

// Response is the composed crisis reply.
type Response struct {
	Message   string     `json:"message"`
	Resources []Resource `json:"resources"`
	Actions   []string   `json:"actions"`
}

// Compose selects the reply template, resources, and actions for an
// assessment. It never fails: unknown levels use the none template.
func Compose(a domain.RiskAssessment) Response {
	level := a.RiskLevel
	tpl, ok := templates[level]
	if !ok {
		level = domain.RiskNone
		tpl = templates[domain.RiskNone]
	}

	msg := tpl.message
	if note, ok := contextNotes[a.CulturalContext]; ok {
		msg += " " + note
	}

	return Response{
		Message:   msg,
		Resources: resourcesFor(level),
		Actions:   append([]string{}, tpl.actions...),
	}
}

func resourcesFor(level domain.RiskLevel) []Resource {
	if level.Rank() < domain.RiskLow.Rank() {
		return []Resource{}
	}
	out := make([]Resource, 0, len(hotlines)+1)
	if level.RequiresImmediate() {
		out = append(out, emergency)
	}
	return append(out, hotlines...)
}

// Hotlines returns a copy of the standard hotline set.
func Hotlines() []Resource { return append([]Resource{}, hotlines...) }

// FallbackReply is the degraded-mode assistant reply used when the language
// model cannot answer. It always names the primary hotline.
func FallbackReply() string { return fallbackReply }
