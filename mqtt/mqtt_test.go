package mqtt

import "testing"

func TestNew_DisabledWithoutHost(t *testing.T) {
	connected := false
	c, err := New(Config{}, "cabinet-test", &Message{Topic: "t", Payload: "offline"}, Handlers{
		OnConnect: func() { connected = true },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsEnabled() {
		t.Fatal("expected a disabled client")
	}

	if err := c.Connect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !connected {
		t.Error("expected OnConnect to be called for a disabled client")
	}

	// No-ops must not panic without a broker.
	c.Publish("topic", "payload")
	c.PublishRetained("topic", "payload")
	if err := c.Subscribe("topic"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	c.Disconnect()
}

func TestBuildTLSConfig_MissingCA(t *testing.T) {
	if _, err := buildTLSConfig(Config{CACert: "/nonexistent/ca.pem"}); err == nil {
		t.Error("expected an error for a missing CA certificate")
	}
}
