package pages

import (
	"strings"
	"testing"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/tools"
	"github.com/buckleypaul/adbdeck/internal/tools/toolstest"
)

func TestInfoSystemProbes(t *testing.T) {
	fake := withDevices("ABC123\tdevice\n", "").
		On("adb -s ABC123 shell uname -a", toolstest.Response{Result: tools.Result{Stdout: "Linux localhost 5.10\n"}})
	p := NewInfoPage(newDeck(t, fake))

	_, cmd := p.Update(keyMsg("s"))
	msg := run(t, cmd)
	if _, ok := msg.(app.ProbeMsg); !ok {
		t.Fatalf("expected ProbeMsg, got %T", msg)
	}
	p.Update(msg)

	out := p.output.b.String()
	for _, want := range []string{"[Kernel]", "Linux localhost 5.10", "[Build fingerprint]", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if p.requests.busy() || p.running != "" {
		t.Error("probe run should be finished")
	}
}

func TestInfoRequiresAuthorizedDevice(t *testing.T) {
	fake := withDevices("ABC123\tunauthorized\n", "")
	p := NewInfoPage(newDeck(t, fake))

	_, cmd := p.Update(keyMsg("h"))
	if cmd != nil {
		t.Fatal("unauthorized device should not be probed")
	}
	if out := p.output.b.String(); !strings.Contains(out, "unauthorized") {
		t.Errorf("unexpected output %q", out)
	}
	if got := commandLines(fake); len(got) != 0 {
		t.Fatalf("unexpected commands %v", got)
	}
}
