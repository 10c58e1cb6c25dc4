package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// SendGridNotifier emails reminders through the SendGrid v3 API
type SendGridNotifier struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	api        func(rest.Request) (*rest.Response, error)
}

func NewSendGridNotifier(key, fromName, fromEmail, instituteName string) *SendGridNotifier {
	return &SendGridNotifier{
		key:        key,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + instituteName + "] ",
		api:        sendgrid.API,
	}
}

func (n *SendGridNotifier) SendReminder(ctx context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	req := sendgrid.GetRequest(n.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(n.prepare(recipients, subject, body))

	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := n.api(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}

	return nil
}

func (n *SendGridNotifier) prepare(recipients []string, subject, body string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = n.subjPrefix + subject
	for _, to := range recipients {
		p.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", body))

	return m
}
