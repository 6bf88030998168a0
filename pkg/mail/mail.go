package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/resend/resend-go/v3"
)

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ZoneCount is one line of the digest.
type ZoneCount struct {
	Zone  string
	Count int
}

// DigestEmail is the daily new-listings summary for a subscriber.
type DigestEmail struct {
	To    string
	Name  string
	Zones []ZoneCount
}

// Total sums listings across zones.
func (d DigestEmail) Total() int {
	total := 0
	for _, z := range d.Zones {
		total += z.Count
	}
	return total
}

var digestTemplate = template.Must(template.New("digest").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Total}} new listing{{if ne .Total 1}}s{{end}} matched your zones today:</p>
<ul>{{range .Zones}}<li>{{.Zone}}: {{.Count}}</li>{{end}}</ul>
<p>Open duRent to see them.</p>`))

// Mailer sends transactional email through Resend.
type Mailer struct {
	emails emailSender
	from   string
}

func NewMailer(apiKey, from string) (*Mailer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	client := resend.NewClient(apiKey)
	return &Mailer{emails: client.Emails, from: from}, nil
}

// SendDigest renders and sends the zone digest email.
func (m *Mailer) SendDigest(ctx context.Context, email DigestEmail) error {
	if m == nil || m.emails == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mailer not configured")
	}
	if strings.TrimSpace(email.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render digest email")
	}

	_, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: fmt.Sprintf("%d new listings in your zones", email.Total()),
		Html:    body.String(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send digest email")
	}
	return nil
}
