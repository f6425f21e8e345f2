package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectHostPort_LowestFree(t *testing.T) {
	r := PortRange{Start: 20000, End: 20005}

	port, err := SelectHostPort(r, []int{20000, 20001}, 0)
	require.NoError(t, err)
	assert.Equal(t, 20002, port)
}

func TestSelectHostPort_EmptyUsed(t *testing.T) {
	port, err := SelectHostPort(DefaultPortRange(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPortRangeStart, port)
}

func TestSelectHostPort_Requested(t *testing.T) {
	port, err := SelectHostPort(DefaultPortRange(), []int{20000}, 8088)
	require.NoError(t, err)
	assert.Equal(t, 8088, port)
}

func TestSelectHostPort_RequestedInUse(t *testing.T) {
	_, err := SelectHostPort(DefaultPortRange(), []int{8088}, 8088)
	assert.ErrorIs(t, err, ErrPortInUse)
}

func TestSelectHostPort_RequestedOutOfRange(t *testing.T) {
	_, err := SelectHostPort(DefaultPortRange(), nil, 70000)
	assert.ErrorIs(t, err, ErrPortOutOfRange)

	_, err = SelectHostPort(DefaultPortRange(), nil, -1)
	assert.ErrorIs(t, err, ErrPortOutOfRange)
}

func TestSelectHostPort_Exhausted(t *testing.T) {
	r := PortRange{Start: 20000, End: 20001}

	_, err := SelectHostPort(r, []int{20000, 20001}, 0)
	assert.ErrorIs(t, err, ErrRangeExhausted)
}
