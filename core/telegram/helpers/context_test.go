package helpers

import (
	"testing"

	"github.com/m3rciful/expensebot/core/logger"
)

func TestRequestContextCarriesUpdateMeta(t *testing.T) {
	c := newChatContext(textUpdate())
	ctx := RequestContext(c)

	if got := logger.ChatIDFrom(ctx); got != 9 {
		t.Fatalf("chat id = %d", got)
	}
	if got := logger.UserIDFrom(ctx); got != 9 {
		t.Fatalf("user id = %d", got)
	}
	if got := logger.UpdateIDFrom(ctx); got != 3 {
		t.Fatalf("update id = %d", got)
	}
	rid := logger.RIDFrom(ctx)
	if rid == "" || c.Get("rid") != rid {
		t.Fatalf("rid = %q, stored %v", rid, c.Get("rid"))
	}
	if again := logger.RIDFrom(RequestContext(c)); again != rid {
		t.Fatalf("rid changed: %q -> %q", rid, again)
	}
}

func TestBuildContextReusesCachedContext(t *testing.T) {
	c := newChatContext(textUpdate())
	first := WithHandler(c, "callback.add")
	if got := logger.HandlerFrom(BuildContext(c)); got != "callback.add" {
		t.Fatalf("handler = %q", got)
	}
	if BuildContext(c) != first {
		t.Fatal("cached context not reused")
	}
}
