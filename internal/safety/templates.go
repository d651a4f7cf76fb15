package safety

import "github.com/tbourn/wellness-chat-backend/internal/domain"

// Crisis copy lives here so it can be reviewed and localized without touching
// the classification or composition logic.

type template struct {
	message string
	actions []string
}

var emergency = Resource{Name: "Emergency Services", Contact: "112", Available: "24x7"}

var hotlines = []Resource{
	{Name: "KIRAN Mental Health Helpline", Contact: "1800-599-0019", Available: "24x7, toll-free"},
	{Name: "Tele-MANAS", Contact: "14416", Available: "24x7, toll-free"},
	{Name: "AASRA", Contact: "+91-9820466726", Available: "24x7"},
	{Name: "Vandrevala Foundation", Contact: "+91-9999666555", Available: "24x7, call or WhatsApp"},
}

var templates = map[domain.RiskLevel]template{
	domain.RiskImminent: {
		message: "I'm really worried about your safety right now, and I'm glad you told me. Please call 112 or KIRAN at 1800-599-0019 right now. You deserve immediate support and you do not have to get through this moment alone.",
		actions: []string{
			"Call emergency services (112) now",
			"Call KIRAN at 1800-599-0019",
			"Move away from anything you could use to hurt yourself",
			"Stay with someone you trust or ask them to come to you",
			"Go to the nearest hospital emergency department",
		},
	},
	domain.RiskHigh: {
		message: "Thank you for trusting me with this. What you're carrying sounds incredibly heavy, and your life matters. Please reach out to KIRAN at 1800-599-0019 or Tele-MANAS at 14416 now. They are trained to help with exactly this.",
		actions: []string{
			"Call KIRAN at 1800-599-0019 or Tele-MANAS at 14416",
			"Tell a trusted friend or family member how you are feeling",
			"Remove or lock away means of self-harm",
			"Call 112 if you feel you might act on these thoughts",
		},
	},
	domain.RiskModerate: {
		message: "I hear how much pain you're in, and I'm really glad you shared it. These feelings can ease with support. Would you consider talking to someone at KIRAN (1800-599-0019) today?",
		actions: []string{
			"Talk to a counsellor at KIRAN or Tele-MANAS",
			"Reach out to someone you trust today",
			"Write down what is making today hard",
		},
	},
	domain.RiskLow: {
		message: "It sounds like things feel really heavy right now. You don't have to carry this by yourself, and talking to someone can help.",
		actions: []string{
			"Consider calling a helpline to talk things through",
			"Do one small thing that usually comforts you",
		},
	},
	domain.RiskNone: {
		message: "I'm here to listen. Tell me more about what's on your mind.",
		actions: []string{
			"Take a few slow, deep breaths",
		},
	},
}

var contextNotes = map[string]string{
	ContextAcademic: "Exam results and marks can feel like everything right now, but they do not decide your worth.",
	ContextFamily:   "Conflict at home can make everything feel harder, and your feelings about it are valid.",
}

const fallbackReply = "I'm sorry, I'm having trouble responding right now. If you are struggling or feel unsafe, please call the KIRAN Mental Health Helpline at 1800-599-0019 (24x7, toll-free). You can also try messaging me again in a moment."
