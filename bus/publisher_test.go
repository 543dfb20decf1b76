package bus

import (
	"testing"
	"time"

	"github.com/ln80/domainstore/domain"
)

func TestMessageFrom(t *testing.T) {
	rec := domain.EventRecord{
		ID:          "evt1",
		AggregateID: "agg1",
		Version:     3,
		Type:        "bank.MoneyDeposited",
		Data:        []byte(`{"Amount":100}`),
		CreatedAt:   time.Now(),
	}

	msg := MessageFrom(rec)
	if msg.ID != rec.ID || msg.Type != rec.Type {
		t.Fatalf("expect message identity be (%s, %s), got (%s, %s)", rec.ID, rec.Type, msg.ID, msg.Type)
	}
	if string(msg.Body) != string(rec.Data) {
		t.Fatalf("expect message body be %s, got %s", rec.Data, msg.Body)
	}
	if want, got := "agg1", msg.Attributes["AggID"]; want != got {
		t.Fatalf("expect aggregate attribute be %s, got %s", want, got)
	}
	if want, got := "3", msg.Attributes["Ver"]; want != got {
		t.Fatalf("expect version attribute be %s, got %s", want, got)
	}
}
