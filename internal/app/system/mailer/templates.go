// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// InviteEmailData holds data for invite email templates.
type InviteEmailData struct {
	SiteName   string
	FullName   string
	Roles      []string // role names as shown to the recipient
	TeamName   string   // empty when the invite is not team-scoped
	AcceptLink string
	ExpiresIn  string // e.g., "7 days"
}

// BuildInviteEmail creates an account-invite email with both HTML and text bodies.
func BuildInviteEmail(data InviteEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("You're invited to %s", data.SiteName),
		TextBody: buildInviteText(data),
		HTMLBody: buildInviteHTML(data),
	}
}

func buildInviteText(data InviteEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("You've been invited to join %s", data.SiteName))
	if data.TeamName != "" {
		buf.WriteString(fmt.Sprintf(" on the %s team", data.TeamName))
	}
	if len(data.Roles) > 0 {
		buf.WriteString(fmt.Sprintf(" as %s", strings.Join(data.Roles, ", ")))
	}
	buf.WriteString(".\n\n")
	buf.WriteString("Open this link to set your password and finish signing up:\n")
	buf.WriteString(data.AcceptLink + "\n\n")
	buf.WriteString(fmt.Sprintf("This invite expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you weren't expecting this invite, you can safely ignore this email.\n")
	return buf.String()
}

func buildInviteHTML(data InviteEmailData) string {
	tmpl := template.Must(template.New("invite").Parse(inviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, struct {
		InviteEmailData
		RoleList string
	}{data, strings.Join(data.Roles, ", ")})
	return buf.String()
}

// DeadlineReminderData holds data for training-deadline reminder emails.
type DeadlineReminderData struct {
	SiteName    string
	FullName    string
	CourseTitle string
	Deadline    string // already formatted for display
	CourseLink  string
}

// BuildDeadlineReminderEmail creates a reminder that a required course
// is approaching its completion deadline.
func BuildDeadlineReminderEmail(data DeadlineReminderData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Reminder: finish %q by %s", data.CourseTitle, data.Deadline),
		TextBody: buildDeadlineText(data),
		HTMLBody: buildDeadlineHTML(data),
	}
}

func buildDeadlineText(data DeadlineReminderData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("Your training course %q is due by %s.\n\n", data.CourseTitle, data.Deadline))
	buf.WriteString("Pick up where you left off:\n")
	buf.WriteString(data.CourseLink + "\n\n")
	buf.WriteString(fmt.Sprintf("Sent by %s.\n", data.SiteName))
	return buf.String()
}

func buildDeadlineHTML(data DeadlineReminderData) string {
	tmpl := template.Must(template.New("deadline").Parse(deadlineHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}}, you've been invited to join {{.SiteName}}{{if .TeamName}} on the <strong>{{.TeamName}}</strong> team{{end}}{{if .RoleList}} as {{.RoleList}}{{end}}.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.AcceptLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This invite expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you weren't expecting this invite, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const deadlineHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Training Deadline</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.FullName}}, your training course <strong>{{.CourseTitle}}</strong> is due by <strong>{{.Deadline}}</strong>.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.CourseLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Continue Training
                    </a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
