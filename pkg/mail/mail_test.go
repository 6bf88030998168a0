package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v3"
)

type fakeEmails struct {
	requests []*resend.SendEmailRequest
	err      error
}

func (f *fakeEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.requests = append(f.requests, params)
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestSendDigestRendersZones(t *testing.T) {
	emails := &fakeEmails{}
	mailer := &Mailer{emails: emails, from: "duRent <no-reply@durent.app>"}

	err := mailer.SendDigest(context.Background(), DigestEmail{
		To:   "tenant@example.com",
		Name: "Omar",
		Zones: []ZoneCount{
			{Zone: "Marina", Count: 2},
			{Zone: "JLT", Count: 1},
		},
	})
	if err != nil {
		t.Fatalf("send digest: %v", err)
	}
	if len(emails.requests) != 1 {
		t.Fatalf("expected one email, got %d", len(emails.requests))
	}
	req := emails.requests[0]
	if req.Subject != "3 new listings in your zones" {
		t.Fatalf("unexpected subject %q", req.Subject)
	}
	if req.To[0] != "tenant@example.com" || req.From != "duRent <no-reply@durent.app>" {
		t.Fatalf("unexpected addressing %+v", req)
	}
	for _, fragment := range []string{"Hi Omar", "<li>Marina: 2</li>", "<li>JLT: 1</li>"} {
		if !strings.Contains(req.Html, fragment) {
			t.Fatalf("expected %q in body %s", fragment, req.Html)
		}
	}
}

func TestSendDigestErrors(t *testing.T) {
	mailer := &Mailer{emails: &fakeEmails{err: errors.New("quota")}}
	if err := mailer.SendDigest(context.Background(), DigestEmail{To: "a@b.c"}); err == nil {
		t.Fatal("expected provider error")
	}
	if err := mailer.SendDigest(context.Background(), DigestEmail{}); err == nil {
		t.Fatal("expected missing recipient error")
	}
	var nilMailer *Mailer
	if err := nilMailer.SendDigest(context.Background(), DigestEmail{To: "a@b.c"}); err == nil {
		t.Fatal("expected nil mailer error")
	}
	if _, err := NewMailer(" ", "x"); err == nil {
		t.Fatal("expected missing key error")
	}
}
