package dispatch

import (
	"testing"

	"github.com/pkg/errors"
)

func TestGateAcceptsExactPhraseOnly(t *testing.T) {
	g := NewGate("")
	if g.Phrase != "我了解風險並確認" {
		t.Fatalf("unexpected default phrase %q", g.Phrase)
	}

	ok, err := g.Check("我了解風險並確認")
	if !ok || err != nil {
		t.Fatalf("exact phrase should pass, got ok=%v err=%v", ok, err)
	}

	for _, input := range []string{
		"我了解风险并确认", // simplified characters
		"我了解風險並確認 ",
		"yes",
	} {
		ok, err := g.Check(input)
		if ok || !errors.Is(err, ErrConfirmationRejected) {
			t.Errorf("Check(%q) = %v, %v; want rejection", input, ok, err)
		}
	}
}

func TestGateEmptyInputAbortsSilently(t *testing.T) {
	ok, err := NewGate("").Check("")
	if ok || err != nil {
		t.Fatalf("expected silent abort, got ok=%v err=%v", ok, err)
	}
}

func TestGateCustomPhrase(t *testing.T) {
	g := NewGate("I understand")
	if ok, _ := g.Check("I understand"); !ok {
		t.Fatal("custom phrase should pass")
	}
	if ok, _ := g.Check("我了解風險並確認"); ok {
		t.Fatal("default phrase must not pass a custom gate")
	}
}
