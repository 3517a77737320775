package requestid_test

import (
	"context"
	"testing"

	"github.com/ErlanBelekov/userauth-api/internal/requestid"
	"github.com/google/uuid"
)

func TestFromHeader(t *testing.T) {
	valid := uuid.NewString()
	if got := requestid.FromHeader(valid); got != valid {
		t.Errorf("valid id replaced: got %q", got)
	}

	for _, in := range []string{"", "abc", "evil\nvalue"} {
		got := requestid.FromHeader(in)
		if got == in {
			t.Errorf("invalid id %q kept", in)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("generated id %q is not a uuid", got)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	if got := requestid.FromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
	ctx := requestid.WithRequestID(context.Background(), "id-1")
	if got := requestid.FromContext(ctx); got != "id-1" {
		t.Errorf("got %q", got)
	}
}
