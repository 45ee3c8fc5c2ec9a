package mail

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/service"
)

var textTmpl = template.Must(template.New("text").Parse(`Hi,

{{.Inviter}} invited you to join "{{.Project}}" on Agileboard.
{{- if .Description}}

{{.Description}}
{{- end}}

Open this link to accept or decline:
{{.Link}}

The invitation expires on {{.Expires}}.
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>Hi,</p>
<p><strong>{{.Inviter}}</strong> invited you to join <strong>{{.Project}}</strong> on Agileboard.</p>
{{- if .Description}}
<p>{{.Description}}</p>
{{- end}}
<p><a href="{{.Link}}">Accept or decline the invitation</a></p>
<p>The invitation expires on {{.Expires}}.</p>
`))

type invitationView struct {
	Inviter     string
	Project     string
	Description string
	Link        string
	Expires     string
}

// InvitationNotifier renders invitation emails and hands them to a Mailer.
type InvitationNotifier struct {
	Mailer Mailer

	// BaseURL is the public web origin; links point at BaseURL/invite/{token}.
	BaseURL string
}

func (n *InvitationNotifier) SendInvitation(ctx context.Context, msg service.InvitationMessage) error {
	view := invitationView{
		Inviter:     msg.InviterName,
		Project:     msg.ProjectTitle,
		Description: msg.ProjectDescription,
		Link:        InviteLink(n.BaseURL, msg.Token),
		Expires:     msg.ExpiresAt.UTC().Format(time.RFC1123),
	}
	if view.Inviter == "" {
		view.Inviter = msg.InviterEmail
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, view); err != nil {
		return err
	}
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return err
	}

	subject := "You're invited to " + msg.ProjectTitle
	if msg.Resent {
		subject = "Reminder: you're invited to " + msg.ProjectTitle
	}

	return n.Mailer.Send(ctx, Message{
		To:      msg.To,
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

// InviteLink builds the public landing URL for a raw token.
func InviteLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/invite/" + url.PathEscape(token)
}
