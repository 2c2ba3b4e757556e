package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracy-project/tracy/internal/wire"
)

func TestEncodeDecodeBeacon_RoundTrip(t *testing.T) {
	payload := wire.EncodeBeacon("host1", "agentd", 4242)

	got, err := wire.DecodeBeacon(payload)
	require.NoError(t, err)
	assert.Equal(t, wire.Beacon{Host: "host1", Process: "agentd", Port: 4242}, got)
}

func TestDecodeBeacon_MissingFieldIsError(t *testing.T) {
	_, err := wire.DecodeBeacon([]byte("host=host1\nprocess=agentd\n"))
	assert.Error(t, err)
}

func TestDecodeBeacon_MalformedPortIsError(t *testing.T) {
	_, err := wire.DecodeBeacon([]byte("host=host1\nprocess=agentd\nport=not-a-number\n"))
	assert.Error(t, err)
}

func TestDecodeBeacon_IgnoresUnknownFields(t *testing.T) {
	got, err := wire.DecodeBeacon([]byte("host=host1\nprocess=agentd\nport=1\nextra=ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "host1", got.Host)
}
