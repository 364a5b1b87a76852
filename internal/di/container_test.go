package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type widget struct {
	id int
}

func TestRegisterAndResolve(t *testing.T) {
	c := NewContainer()
	c.Register("widget", &widget{id: 7})

	if !c.Has("widget") {
		t.Error("Has should report the registered service")
	}
	if c.Has("missing") {
		t.Error("Has should not report unknown services")
	}

	w := Resolve[*widget](c, "widget")
	if w.id != 7 {
		t.Errorf("resolved widget id = %d, want 7", w.id)
	}
}

func TestResolvePanicsOnMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Resolve of an unregistered service should panic")
		}
	}()
	Resolve[*widget](NewContainer(), "missing")
}

func TestResolvePanicsOnWrongType(t *testing.T) {
	c := NewContainer()
	c.Register("widget", "not a widget")

	defer func() {
		if recover() == nil {
			t.Error("Resolve with a mismatched type should panic")
		}
	}()
	Resolve[*widget](c, "widget")
}

func TestTokenResolvesLazily(t *testing.T) {
	c := NewContainer()
	token := NewToken[*widget]("test.widget")

	var builds atomic.Int32
	RegisterToken(c, token, func(ServiceRegistry) *widget {
		builds.Add(1)
		return &widget{id: 42}
	})

	if builds.Load() != 0 {
		t.Fatal("factory should not run at registration time")
	}

	first := GetToken(c, token)
	second := GetToken(c, token)

	if builds.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", builds.Load())
	}
	if first != second {
		t.Error("token should resolve to a single memoized instance")
	}
	if first.id != 42 {
		t.Errorf("resolved id = %d, want 42", first.id)
	}
}

func TestTokenResolutionIsConcurrencySafe(t *testing.T) {
	c := NewContainer()
	token := NewToken[*widget]("test.concurrent")

	var builds atomic.Int32
	RegisterToken(c, token, func(ServiceRegistry) *widget {
		builds.Add(1)
		return &widget{}
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			GetToken(c, token)
		}()
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Errorf("factory ran %d times under contention, want 1", builds.Load())
	}
}

func TestGetTokenPanicsOnMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("GetToken for an unregistered token should panic")
		}
	}()
	GetToken(NewContainer(), NewToken[*widget]("test.missing"))
}

func TestTokensCanChainDependencies(t *testing.T) {
	c := NewContainer()
	base := NewToken[int]("test.base")
	derived := NewToken[string]("test.derived")

	RegisterToken(c, base, func(ServiceRegistry) int { return 5 })
	RegisterToken(c, derived, func(sr ServiceRegistry) string {
		if GetToken(sr, base) == 5 {
			return "five"
		}
		return "other"
	})

	if got := GetToken(c, derived); got != "five" {
		t.Errorf("derived token = %q, want %q", got, "five")
	}
}
