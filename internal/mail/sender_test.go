package mail

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

func TestCompose(t *testing.T) {
	m, ok := Compose(domain.Event{
		Type: domain.EventConnectionRequested, Title: "Foo",
		OwnerEmail: "owner@example.com", UserEmail: "alice@example.com", Message: "hi",
	})
	if !ok || m.To != "owner@example.com" || !strings.Contains(m.Body, "alice@example.com") {
		t.Fatalf("requested: %+v %v", m, ok)
	}

	m, ok = Compose(domain.Event{Type: domain.EventConnectionRejected, Title: "Foo", UserEmail: "bob@example.com"})
	if !ok || m.To != "bob@example.com" || !strings.Contains(m.Subject, "declined") {
		t.Fatalf("rejected: %+v %v", m, ok)
	}

	if _, ok := Compose(domain.Event{Type: domain.EventProjectUpdated}); ok {
		t.Fatal("project.updated should not be mailed")
	}
	if _, ok := Compose(domain.Event{Type: domain.EventConnectionAccepted}); ok {
		t.Fatal("no recipient, no mail")
	}
}

func TestHandleEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := &Sender{Log: zap.New(core)}

	body, _ := json.Marshal(domain.Event{
		Type: domain.EventConnectionAccepted, Title: "Foo", UserEmail: "alice@example.com",
	})
	if err := s.HandleEvent(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("[MAIL]").Len() != 1 {
		t.Fatalf("mail not logged: %v", logs.All())
	}

	if err := s.HandleEvent(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed body must be dropped: %v", err)
	}
}
