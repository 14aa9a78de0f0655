package di

import "testing"

type greeter struct{ name string }

func TestContainer_LazySingleton(t *testing.T) {
	c := NewContainer()
	c.Register("name", "genie")

	calls := 0
	tok := NewToken[*greeter]("test:greeter")
	RegisterToken(c, tok, func(sr ServiceRegistry) *greeter {
		calls++
		return &greeter{name: sr.Get("name").(string)}
	})

	first := GetToken(c, tok)
	second := GetToken(c, tok)

	if first != second {
		t.Error("expected the same instance on repeated resolution")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if first.name != "genie" {
		t.Errorf("name = %q, want genie", first.name)
	}
}

func TestContainer_MissingServicePanics(t *testing.T) {
	c := NewContainer()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered service")
		}
	}()
	c.Get("missing")
}
