package queue

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/core/ports"
)

func TestLogNotifier_NeverLogsTheCode(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	err := n.Deliver(context.Background(), ports.CodeDelivery{
		Handle:     "handle-1",
		Identifier: "9900112233",
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "482913") {
		t.Fatalf("code leaked into the log: %s", out)
	}
	if strings.Contains(out, "9900112233") {
		t.Fatalf("raw identifier leaked into the log: %s", out)
	}
	if !strings.Contains(out, "handle-1") {
		t.Fatalf("handle missing from the log: %s", out)
	}
	if !strings.Contains(out, "33") {
		t.Fatalf("masked identifier should keep the last two characters: %s", out)
	}
}

func TestMask(t *testing.T) {
	if got := mask("9900112233"); got != "********33" {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := mask("ab"); got != "**" {
		t.Fatalf("short identifiers must be fully masked, got %q", got)
	}
}
