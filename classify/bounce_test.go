package classify

import "testing"

func TestIsBounceSenderHeaders(t *testing.T) {
	tests := []struct {
		name string
		h    Header
		want bool
	}{
		{
			"mailer-daemon from",
			Header{"From": "Mail Delivery Subsystem <MAILER-DAEMON@mx.example.com>"},
			true,
		},
		{
			"postmaster from",
			Header{"From": "postmaster@corp.example"},
			true,
		},
		{
			"empty return-path",
			Header{"From": "someone@example.com", "Return-Path": "<>"},
			true,
		},
		{
			"blank return-path",
			Header{"From": "someone@example.com", "Return-Path": "   "},
			true,
		},
		{
			"normal sender with return-path",
			Header{"From": "jane@prospect.example", "Return-Path": "<jane@prospect.example>"},
			false,
		},
		{
			"normal sender without return-path",
			Header{"From": "jane@prospect.example"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBounce(tt.h, "Thanks, talk soon!"); got != tt.want {
				t.Errorf("IsBounce = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsBounceDSN(t *testing.T) {
	t.Run("multipart report with failed action", func(t *testing.T) {
		h := Header{
			"From":         "Mail System <robot@mx.example.com>",
			"Content-Type": `multipart/report; report-type=delivery-status; boundary="b"`,
		}
		body := "Reporting-MTA: dns; mx.example.com\nAction: failed\nStatus: 5.1.1\n"
		if !IsBounce(h, body) {
			t.Error("IsBounce = false for a multipart/report DSN with Action: failed")
		}
	})

	t.Run("delivery-status embedded in body", func(t *testing.T) {
		h := Header{"From": "robot@mx.example.com"}
		body := "Content-Type: message/delivery-status\n\nStatus: 5.2.2\n"
		if !IsBounce(h, body) {
			t.Error("IsBounce = false for an embedded delivery-status part with a 5.x status")
		}
	})

	t.Run("report with transient status only", func(t *testing.T) {
		h := Header{
			"From":         "notifier@mx.example.com",
			"Content-Type": "multipart/report; report-type=delivery-status",
		}
		body := "Action: delayed\nStatus: 4.4.1\n"
		if IsBounce(h, body) {
			t.Error("IsBounce = true for a delay notification")
		}
	})
}

func TestIsBounceBodyPhrases(t *testing.T) {
	h := Header{"From": "notifier@relay.example.com"}

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"undeliverable", "Your message was undeliverable.", true},
		{"user unknown", "smtp; 550 user unknown", true},
		{"mailbox full", "The recipient's mailbox is full and cannot accept messages.", true},
		{"address rejected", "Recipient address rejected: access denied", true},
		{"permanent failure", "This is a permanent failure, message not delivered.", true},
		{"plain human text", "Sounds great, let's set up a call next week.", false},
		{"mentions delivery innocently", "The delivery of the new laptops arrived today.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBounce(h, tt.body); got != tt.want {
				t.Errorf("IsBounce(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
