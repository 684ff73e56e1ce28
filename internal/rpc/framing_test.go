package rpc

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramedStreamRoundTrips(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientStream := newFramedStream(client)
	serverStream := newFramedStream(server)

	type payload struct {
		Text string `json:"text"`
	}

	done := make(chan error, 1)
	go func() {
		done <- clientStream.WriteObject(payload{Text: "hello"})
	}()

	var got payload
	require.NoError(t, serverStream.ReadObject(&got))
	require.NoError(t, <-done)
	assert.Equal(t, "hello", got.Text)
}

func TestFramedStreamRejectsOversizedFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	stream := newFramedStream(server)

	go func() {
		var lenBuf [4]byte
		lenBuf[0] = 0xFF // encodes a length far beyond maxFrameBytes
		lenBuf[1] = 0xFF
		lenBuf[2] = 0xFF
		lenBuf[3] = 0xFF
		_, _ = client.Write(lenBuf[:])
	}()

	var v interface{}
	err := stream.ReadObject(&v)
	assert.Error(t, err)
}
