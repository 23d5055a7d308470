package notice

import (
	"testing"
	"time"
)

func TestNotifyFiltersByLevel(t *testing.T) {
	bus := NewBus()

	failures, unsubFailures := bus.Subscribe(4, LevelFailure)
	defer unsubFailures()
	all, unsubAll := bus.Subscribe(4)
	defer unsubAll()

	bus.Notify(Failure("signIn", MsgSomethingWentWrong))
	bus.Notify(Info("signIn", "signed in as Ana"))

	got := Drain(failures)
	if len(got) != 1 {
		t.Fatalf("expected 1 failure notice, got %d", len(got))
	}
	if got[0].Notice.Level != LevelFailure || got[0].Notice.Message != MsgSomethingWentWrong {
		t.Errorf("unexpected failure event %+v", got[0])
	}

	got = Drain(all)
	if len(got) != 2 {
		t.Fatalf("expected 2 notices for an unfiltered subscriber, got %d", len(got))
	}
	if got[1].Notice.Level != LevelInfo {
		t.Errorf("expected info level, got %s", got[1].Notice.Level)
	}
	if got[0].Seq >= got[1].Seq {
		t.Errorf("expected increasing sequence, got %d then %d", got[0].Seq, got[1].Seq)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1, LevelFailure)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if len(bus.subs) != 0 {
		t.Errorf("expected no subscribers, got %d", len(bus.subs))
	}

	// publishing after unsubscribe must not panic
	bus.Notify(Failure("signOut", MsgSignOutFailed))
}

func TestSlowSubscriberDropsNotices(t *testing.T) {
	bus := NewBus()
	bus.timeout = 10 * time.Millisecond
	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	start := time.Now()
	bus.Notify(Failure("a", MsgSomethingWentWrong))
	bus.Notify(Failure("b", MsgSomethingWentWrong))
	if time.Since(start) > time.Second {
		t.Error("publish blocked on a full subscriber")
	}

	got := Drain(ch)
	if len(got) != 1 || got[0].Notice.Op != "a" {
		t.Errorf("expected only the first notice, got %+v", got)
	}
}

func TestShutdown(t *testing.T) {
	bus := NewBus()
	ch1, _ := bus.Subscribe(1, LevelFailure)
	ch2, _ := bus.Subscribe(1)
	bus.Shutdown()

	for i, ch := range []<-chan Event{ch1, ch2} {
		if _, ok := <-ch; ok {
			t.Errorf("subscriber %d: channel should be closed", i)
		}
	}
	bus.Notify(Info("x", "after shutdown"))
}
