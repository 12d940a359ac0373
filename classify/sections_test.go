package classify

import "testing"

func TestSplitSectionsPlainReply(t *testing.T) {
	body := "Thanks for reaching out!\nThursday works for me.\n"
	got := SplitSections(body)

	if got.Headers != "" {
		t.Errorf("Headers = %q, want empty", got.Headers)
	}
	if got.Reply != "Thanks for reaching out!\nThursday works for me." {
		t.Errorf("Reply = %q", got.Reply)
	}
	if got.History != "" {
		t.Errorf("History = %q, want empty", got.History)
	}
	if got.Raw != body {
		t.Errorf("Raw = %q, want original body", got.Raw)
	}
}

func TestSplitSectionsMobileSignatureHeader(t *testing.T) {
	body := "Sent from my iPhone\n\nSure, send over the deck.\n"
	got := SplitSections(body)

	if got.Headers != "Sent from my iPhone" {
		t.Errorf("Headers = %q, want the signature line", got.Headers)
	}
	if got.Reply != "Sure, send over the deck." {
		t.Errorf("Reply = %q", got.Reply)
	}
}

func TestSplitSectionsQuotedHistory(t *testing.T) {
	body := "Sounds good.\n\nOn Tue, Jun 3, 2025 at 9:14 AM Alex Doe <alex@acme.example> wrote:\n> Hi Jane,\n> Just checking in on my last note.\n"
	got := SplitSections(body)

	if got.Reply != "Sounds good." {
		t.Errorf("Reply = %q, want only the fresh content", got.Reply)
	}
	if got.History == "" {
		t.Error("History is empty, want the quoted block")
	}
}

func TestSplitSectionsHeaderBlockHistory(t *testing.T) {
	body := "Will do.\n\nFrom: Alex Doe <alex@acme.example>\nSent: Tuesday, June 3\nTo: Jane\nSubject: checking in\n\nHi Jane, just checking in.\n"
	got := SplitSections(body)

	if got.Reply != "Will do." {
		t.Errorf("Reply = %q, want only the fresh content", got.Reply)
	}
	if got.History == "" {
		t.Error("History is empty, want the Outlook-style block")
	}
}

func TestSplitSectionsOriginalMessageBanner(t *testing.T) {
	body := "Not interested, thanks.\n\n----- Original Message -----\nHi Jane, quick question for you.\n"
	got := SplitSections(body)

	if got.Reply != "Not interested, thanks." {
		t.Errorf("Reply = %q", got.Reply)
	}
	if got.History == "" {
		t.Error("History is empty, want everything below the banner")
	}
}

// The walk never returns to an earlier zone: prose after a history marker
// stays history even though it looks fresh.
func TestSplitSectionsOneWay(t *testing.T) {
	body := "Quick thought below.\n> quoted line\nThis line looks fresh but follows the quote.\n"
	got := SplitSections(body)

	if got.Reply != "Quick thought below." {
		t.Errorf("Reply = %q", got.Reply)
	}
	if got.History != "> quoted line\nThis line looks fresh but follows the quote." {
		t.Errorf("History = %q", got.History)
	}
}

func TestSplitSectionsSeparatorRun(t *testing.T) {
	body := "Here you go.\n________________\nFrom the archive below.\n"
	got := SplitSections(body)

	if got.Reply != "Here you go." {
		t.Errorf("Reply = %q", got.Reply)
	}
	if got.History == "" {
		t.Error("History is empty, want the separator and what follows")
	}
}

func TestSplitSectionsEmptyBody(t *testing.T) {
	got := SplitSections("")
	if got.Reply != "" || got.Headers != "" || got.History != "" {
		t.Errorf("SplitSections(\"\") = %+v, want all sections empty", got)
	}
}
