package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
)

// Sender writes mail to the log; there is no SMTP transport yet.
type Sender struct {
	Log *zap.Logger
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	l := s.Log
	if l == nil {
		l = log.L()
	}
	log.WithDD(ctx, l).Info("[MAIL]",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Compose builds the mail for an event. ok is false for events nobody is mailed about.
func Compose(ev domain.Event) (Message, bool) {
	switch ev.Type {
	case domain.EventConnectionRequested:
		if ev.OwnerEmail == "" {
			return Message{}, false
		}
		return Message{
			To:      ev.OwnerEmail,
			Subject: fmt.Sprintf("New request to join %q", ev.Title),
			Body:    fmt.Sprintf("%s wants to join your project: %s", ev.UserEmail, ev.Message),
		}, true
	case domain.EventConnectionAccepted, domain.EventConnectionRejected:
		if ev.UserEmail == "" {
			return Message{}, false
		}
		verb := "accepted"
		if ev.Type == domain.EventConnectionRejected {
			verb = "declined"
		}
		return Message{
			To:      ev.UserEmail,
			Subject: fmt.Sprintf("Your request to join %q was %s", ev.Title, verb),
			Body:    fmt.Sprintf("The owner of %q has %s your request.", ev.Title, verb),
		}, true
	}
	return Message{}, false
}

// HandleEvent decodes one queued event and mails it. Undecodable bodies are dropped
// rather than requeued forever.
func (s *Sender) HandleEvent(ctx context.Context, body []byte) error {
	var ev domain.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Ctx(ctx).Warn("drop malformed event", zap.Error(err))
		return nil
	}
	m, ok := Compose(ev)
	if !ok {
		return nil
	}
	return s.Send(ctx, m.To, m.Subject, m.Body)
}
