package urlcache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewMemory(clock.Now)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	_ = c.Set(ctx, "a", Entry{URL: "https://cdn/a", Expiry: clock.t.Add(10 * time.Second)})

	tests := []struct {
		name    string
		advance time.Duration
		wantHit bool
	}{
		{"fresh", 0, true},
		{"just before expiry", 9 * time.Second, true},
		{"at expiry", time.Second, false},
		{"after expiry", time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = clock.t.Add(tt.advance)
			e, ok := c.Get(ctx, "a")
			if ok != tt.wantHit {
				t.Errorf("Get() hit = %v, want %v", ok, tt.wantHit)
			}
			if ok && e.URL != "https://cdn/a" {
				t.Errorf("Get() url = %q", e.URL)
			}
		})
	}
}

func TestMemory_Overwrite(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewMemory(clock.Now)

	_ = c.Set(ctx, "a", Entry{URL: "old", Expiry: clock.t.Add(time.Second)})
	_ = c.Set(ctx, "a", Entry{URL: "new", Expiry: clock.t.Add(time.Minute)})

	clock.t = clock.t.Add(2 * time.Second)
	e, ok := c.Get(ctx, "a")
	if !ok || e.URL != "new" {
		t.Errorf("Get() = %+v, %v; want new entry", e, ok)
	}
}

func TestEntry_Valid(t *testing.T) {
	now := time.Unix(50, 0)
	if (Entry{Expiry: now.Add(time.Hour)}).Valid(now) {
		t.Error("entry without URL should be invalid")
	}
	if !(Entry{URL: "u", Expiry: now.Add(time.Nanosecond)}).Valid(now) {
		t.Error("entry expiring later should be valid")
	}
}
