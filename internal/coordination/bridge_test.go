package coordination

import "testing"

func TestConnect_EmptyURLDisablesCoordination(t *testing.T) {
	b, err := Connect("", "replica-1")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil Bridge when url is empty")
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect("nats://invalid-host-that-does-not-exist:4222", "replica-1")
	if err == nil {
		t.Fatal("expected error connecting to an unreachable host")
	}
}

func TestNilBridge_PublishMethodsAreNoOps(t *testing.T) {
	var b *Bridge
	if err := b.PublishSessions([]SessionSnapshot{{ThreadID: "t1"}}); err != nil {
		t.Errorf("PublishSessions on nil Bridge: %v", err)
	}
	if err := b.PublishLoungeMessage("label", "message"); err != nil {
		t.Errorf("PublishLoungeMessage on nil Bridge: %v", err)
	}
	if err := b.SubscribeSessions(func(string, []SessionSnapshot) {}); err != nil {
		t.Errorf("SubscribeSessions on nil Bridge: %v", err)
	}
	if err := b.SubscribeLoungeMessages(func(string, string) {}); err != nil {
		t.Errorf("SubscribeLoungeMessages on nil Bridge: %v", err)
	}
	b.Close() // must not panic
}
