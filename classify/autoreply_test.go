package classify

import "testing"

func TestIsAutomatedHeaders(t *testing.T) {
	tests := []struct {
		name string
		h    Header
		want bool
	}{
		{"auto-submitted auto-replied", Header{"Auto-Submitted": "auto-replied"}, true},
		{"auto-submitted auto-generated", Header{"Auto-Submitted": "auto-generated"}, true},
		{"auto-submitted no", Header{"Auto-Submitted": "no"}, false},
		{"x-autorespond yes", Header{"X-Autorespond": "yes"}, true},
		{"x-autoreply yes", Header{"X-Autoreply": "YES"}, true},
		{"precedence bulk", Header{"Precedence": "bulk"}, true},
		{"precedence auto_reply", Header{"Precedence": "auto_reply"}, true},
		{"precedence list", Header{"Precedence": "list"}, false},
		{"no signal headers", Header{"From": "jane@prospect.example"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAutomated(tt.h, "Re: quick question", "Let me check and get back to you."); got != tt.want {
				t.Errorf("IsAutomated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAutomatedSubjects(t *testing.T) {
	h := Header{}

	tests := []struct {
		subject string
		want    bool
	}{
		{"Automatic Reply: quick question", true},
		{"Out of Office until Monday", true},
		{"OOO: back next week", true},
		{"Abwesenheitsnotiz", true},
		{"Réponse automatique : votre message", true},
		{"Respuesta automática", true},
		{"不在通知", true},
		{"自动回复: 您的邮件", true},
		{"Re: quick question", false},
		{"Following up on our call", false},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			if got := IsAutomated(h, tt.subject, "body text"); got != tt.want {
				t.Errorf("IsAutomated(subject=%q) = %v, want %v", tt.subject, got, tt.want)
			}
		})
	}
}

func TestIsAutomatedBodies(t *testing.T) {
	h := Header{}

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"classic ooo", "Hello,\n\nI am currently out of the office with limited access to email.", true},
		{"returns later", "Thanks for reaching out. I will respond to your email when I return on June 9.", true},
		{"automated response", "This is an automated response. Your ticket number is 4711.", true},
		{"french absence", "Bonjour, je suis absent jusqu'au 12 juin.", true},
		{"human reply", "Thanks for the intro! Happy to chat on Thursday.", false},
		{"human mentions vacation", "I was on vacation last week, sorry for the delay. Let's talk.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAutomated(h, "Re: quick question", tt.body); got != tt.want {
				t.Errorf("IsAutomated(body=%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
