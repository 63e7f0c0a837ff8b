package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	testCases := []struct {
		status   Status
		expected string
	}{
		{StatusOK, "operation completed successfully"},
		{StatusNoMemory, "could not allocate memory"},
		{StatusSocketError, "a socket error occurred"},
		{StatusTimeout, "request timed out"},
		{StatusUnsupported, "parameter is unsupported in this version"},
		{StatusTCPSocketLibInitError, "socket library initialization failed"},
		{StatusSSLConnectionFailed, "SSL handshake failed"},
		{Status(-0x0015), unknownErrorString},
		{Status(-0x0104), unknownErrorString},
		{Status(-0x0300), unknownErrorString},
		{Status(7), unknownErrorString},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, ErrorString(tc.status))
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestVersion(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0.4.0", Version())
	assert.Equal(uint32(0x00040001), VersionNumber())

	client := NewClient(DefaultConfig())
	assert.Equal(Version(), client.Version())
	assert.Equal(VersionNumber(), client.VersionNumber())
}

func TestResponseTypeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("NORMAL", ResponseNormal.String())
	assert.Equal("SERVER_EXCEPTION", ResponseServerException.String())
	assert.Equal("RESPONSE_TYPE(9)", ResponseType(9).String())
}

func TestTimevalDuration(t *testing.T) {
	assert.Equal(t, "1.5s", Timeval{Sec: 1, Usec: 500000}.Duration().String())
}
