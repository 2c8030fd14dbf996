package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPingUnresolvableHost(t *testing.T) {
	ok, rtt, err := Ping("bad host name!", time.Second)
	assert.False(t, ok)
	assert.Zero(t, rtt)
	assert.Error(t, err)
}
