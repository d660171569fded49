package network

import (
	"net"
	"testing"
)

func TestPeerSendReceiveRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	a := NewPeer("a", "pipe", client)
	b := NewPeer("b", "pipe", server)

	done := make(chan Message, 1)
	go func() {
		msg, err := b.Receive()
		if err != nil {
			t.Errorf("Receive: %v", err)
			close(done)
			return
		}
		done <- msg
	}()

	if err := a.Send(Message{Type: MsgHello, Payload: []byte(`{"node_id":"a"}`)}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := <-done
	if got.Type != MsgHello {
		t.Fatalf("got type %q want %q", got.Type, MsgHello)
	}
}

func TestPeerSendAfterCloseErrors(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	p := NewPeer("a", "pipe", client)
	p.Close()

	if err := p.Send(Message{Type: MsgHello}); err == nil {
		t.Fatal("expected send on closed peer to error")
	}
}
