package mailer

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuildInviteEmail(t *testing.T) {
	email := BuildInviteEmail(InviteEmailData{
		SiteName:   "TrainHub",
		FullName:   "Jordan Pace",
		Roles:      []string{"team lead", "doorholder"},
		TeamName:   "North Lobby",
		AcceptLink: "https://trainhub.example/invite/accept?token=abc123",
		ExpiresIn:  "7 days",
	})

	if !strings.Contains(email.Subject, "TrainHub") {
		t.Errorf("subject missing site name: %q", email.Subject)
	}
	if !strings.Contains(email.TextBody, "https://trainhub.example/invite/accept?token=abc123") {
		t.Error("text body missing accept link")
	}
	if !strings.Contains(email.TextBody, "North Lobby") {
		t.Error("text body missing team name")
	}
	if !strings.Contains(email.TextBody, "team lead, doorholder") {
		t.Error("text body missing role list")
	}
	if !strings.Contains(email.HTMLBody, "Accept Invitation") {
		t.Error("html body missing accept button")
	}
	if !strings.Contains(email.HTMLBody, "7 days") {
		t.Error("html body missing expiry")
	}
}

func TestBuildInviteEmail_NoTeam(t *testing.T) {
	email := BuildInviteEmail(InviteEmailData{
		SiteName:   "TrainHub",
		FullName:   "Sam Ellis",
		Roles:      []string{"admin"},
		AcceptLink: "https://trainhub.example/invite/accept?token=xyz",
		ExpiresIn:  "7 days",
	})

	if strings.Contains(email.TextBody, " team") {
		t.Errorf("text body should not mention a team: %q", email.TextBody)
	}
}

func TestBuildInviteEmail_EscapesHTML(t *testing.T) {
	email := BuildInviteEmail(InviteEmailData{
		SiteName:   "TrainHub",
		FullName:   `<script>alert("x")</script>`,
		AcceptLink: "https://trainhub.example/invite",
		ExpiresIn:  "7 days",
	})

	if strings.Contains(email.HTMLBody, "<script>") {
		t.Error("html body must escape user-supplied names")
	}
}

func TestBuildDeadlineReminderEmail(t *testing.T) {
	email := BuildDeadlineReminderEmail(DeadlineReminderData{
		SiteName:    "TrainHub",
		FullName:    "Jordan Pace",
		CourseTitle: "Safety Basics",
		Deadline:    "March 15, 2026",
		CourseLink:  "https://trainhub.example/courses/abc",
	})

	if !strings.Contains(email.Subject, "Safety Basics") {
		t.Errorf("subject missing course title: %q", email.Subject)
	}
	if !strings.Contains(email.Subject, "March 15, 2026") {
		t.Errorf("subject missing deadline: %q", email.Subject)
	}
	if !strings.Contains(email.TextBody, "https://trainhub.example/courses/abc") {
		t.Error("text body missing course link")
	}
	if !strings.Contains(email.HTMLBody, "Continue Training") {
		t.Error("html body missing action button")
	}
}

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	m := New(Config{
		Host:     "localhost",
		Port:     1025,
		From:     "noreply@trainhub.example",
		FromName: "TrainHub",
	}, zap.NewNop())

	msg := string(m.buildMessage(Email{
		To:       "user@example.com",
		Subject:  "Test",
		TextBody: "plain text",
		HTMLBody: "<p>html</p>",
	}))

	if !strings.Contains(msg, "To: user@example.com") {
		t.Error("message missing To header")
	}
	if !strings.Contains(msg, "multipart/alternative") {
		t.Error("message missing multipart content type")
	}
	if !strings.Contains(msg, "plain text") || !strings.Contains(msg, "<p>html</p>") {
		t.Error("message missing one of the bodies")
	}
	// Text part must precede the HTML part.
	if strings.Index(msg, "plain text") > strings.Index(msg, "<p>html</p>") {
		t.Error("text part should come before html part")
	}
}

func TestSend_LogOnlyMode(t *testing.T) {
	m := New(Config{From: "noreply@trainhub.example"}, zap.NewNop())

	err := m.Send(Email{To: "user@example.com", Subject: "Test", TextBody: "hi"})
	if err != nil {
		t.Errorf("log-only send should succeed, got %v", err)
	}
}

func TestSend_EmptyRecipient(t *testing.T) {
	m := New(Config{From: "noreply@trainhub.example"}, zap.NewNop())

	if err := m.Send(Email{Subject: "Test"}); err == nil {
		t.Error("expected error for empty recipient")
	}
}
