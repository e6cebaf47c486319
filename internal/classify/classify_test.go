package classify

import (
	"errors"
	"testing"
	"time"

	"tally/internal/mail"
)

var msgDate = time.Date(2026, 3, 14, 9, 12, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return New(Config{
		RelayAddress:       "relay@family.example",
		Attribution:        map[string]string{"alex@family.example": "Alex"},
		DefaultAttribution: "Shared",
	}, Providers())
}

func chaseMsg(subject, body string) mail.Message {
	return mail.Message{
		ID:      "m1",
		Sender:  "Chase <no.reply.alerts@chase.com>",
		Subject: subject,
		Body:    body,
		Date:    msgDate,
	}
}

func TestClassifyChaseTransaction(t *testing.T) {
	c := newTestClassifier()

	r, err := c.Classify(chaseMsg("Your $42.10 transaction with Example Store", ""))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !r.Amount.Valid || r.Amount.Cents != 4210 {
		t.Errorf("amount = %v, want 42.10", r.Amount)
	}
	if r.Counterparty != "Example Store" {
		t.Errorf("counterparty = %q", r.Counterparty)
	}
	if r.Provider != "Chase" {
		t.Errorf("provider = %q", r.Provider)
	}
}

func TestClassifyChaseCreditFromBody(t *testing.T) {
	c := newTestClassifier()

	body := "Account ending in 1234\nMerchant    Example Store\nDate 03/14/2026\n"
	r, err := c.Classify(chaseMsg("You have a $5.00 credit pending on your credit card", body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !r.Amount.Valid || r.Amount.Cents != -500 {
		t.Errorf("amount = %v, want -5.00", r.Amount)
	}
	if r.Counterparty != "Example Store" {
		t.Errorf("counterparty = %q", r.Counterparty)
	}
}

func TestClassifyCategoryVariant(t *testing.T) {
	c := newTestClassifier()

	body := "Merchant    Shell Oil\n"
	r, err := c.Classify(chaseMsg("Your $30.00 gas station purchase was approved", body))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Category != "Auto" {
		t.Errorf("category = %q, want Auto", r.Category)
	}
	if r.Counterparty != "Shell Oil" {
		t.Errorf("counterparty = %q", r.Counterparty)
	}
	if r.Amount.Cents != 3000 {
		t.Errorf("amount = %v", r.Amount)
	}
}

func TestClassifyVenmoDirections(t *testing.T) {
	c := newTestClassifier()

	r, err := c.Classify(mail.Message{
		Sender: "venmo@venmo.com", Subject: "You paid Alice Smith $12.00", Date: msgDate,
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Amount.Cents != 1200 || r.Counterparty != "Alice Smith" {
		t.Errorf("paid: %+v", r)
	}

	r, err = c.Classify(mail.Message{
		Sender: "venmo@venmo.com", Subject: "Alice Smith paid you $8.50", Date: msgDate,
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Amount.Cents != -850 {
		t.Errorf("received amount = %v, want -8.50", r.Amount)
	}
}

func TestClassifyNotAReceipt(t *testing.T) {
	c := newTestClassifier()

	r, err := c.Classify(chaseMsg("Your statement is ready", "See attached."))
	if err != nil {
		t.Fatalf("non-matching subject must not error: %v", err)
	}
	if !r.Unclassified() {
		t.Errorf("expected unclassified receipt, got %+v", r)
	}
}

func TestClassifyUnknownProvider(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify(mail.Message{Sender: "noreply@random.example", Subject: "hi", Date: msgDate})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestClassifyForwardedMail(t *testing.T) {
	c := newTestClassifier()

	body := "---------- Forwarded message ---------\n" +
		"From: Chase <no.reply.alerts@chase.com>\n" +
		"Date: Sat, Mar 14, 2026\n" +
		"Subject: fwd\n" +
		"To: alex@family.example\n" +
		"\n" +
		"Merchant    Corner Cafe\n"

	r, err := c.Classify(mail.Message{
		ID:          "m2",
		Sender:      "relay@family.example",
		Destination: "alex@family.example",
		Subject:     "You have a $5.00 credit pending on your credit card",
		Body:        body,
		Date:        msgDate,
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Provider != "Alex Chase" {
		t.Errorf("provider = %q, want attribution prefix", r.Provider)
	}
	// Counterparty must come from the unwrapped original body.
	if r.Counterparty != "Corner Cafe" {
		t.Errorf("counterparty = %q", r.Counterparty)
	}
}

func TestClassifyForwardedUnknownDestination(t *testing.T) {
	c := newTestClassifier()

	body := "Begin forwarded message:\n\nFrom: venmo@venmo.com\nSubject: x\nDate: y\nTo: z\n\nbody"
	r, err := c.Classify(mail.Message{
		Sender:      "relay@family.example",
		Destination: "stranger@family.example",
		Subject:     "You paid Bob $3.00",
		Body:        body,
		Date:        msgDate,
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if r.Provider != "Shared Venmo" {
		t.Errorf("provider = %q, want default attribution", r.Provider)
	}
}

func TestClassifyForwardedUnresolvable(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify(mail.Message{
		Sender:  "relay@family.example",
		Subject: "whatever",
		Body:    "no banner here",
		Date:    msgDate,
	})
	if err == nil {
		t.Fatal("expected unresolvable-forward error")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier()
	msg := chaseMsg("Your $42.10 transaction with Example Store", "")

	first, err1 := c.Classify(msg)
	second, err2 := c.Classify(msg)
	if err1 != nil || err2 != nil {
		t.Fatalf("errs: %v %v", err1, err2)
	}
	if first != second {
		t.Errorf("classification not deterministic: %+v vs %+v", first, second)
	}
}
