package accept_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracy-project/tracy/internal/accept"
)

func TestListen_AssignsPortAndAccepts(t *testing.T) {
	a, err := accept.Listen("127.0.0.1")
	require.NoError(t, err)
	defer a.Close()

	assert.NotZero(t, a.Port())

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := a.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	dialed, err := net.DialTimeout("tcp", a.Addr().String(), time.Second)
	require.NoError(t, err)
	defer dialed.Close()

	select {
	case conn := <-accepted:
		defer conn.Close()
	case <-time.After(time.Second):
		t.Fatal("Accept did not return a connection")
	}
}

func TestClose_UnblocksAccept(t *testing.T) {
	a, err := accept.Listen("127.0.0.1")
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := a.Accept()
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Accept did not unblock after Close")
	}
}
