package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "devices:robot1:heartbeat", HeartbeatKey("robot1"))
	assert.Equal(t, "devices:robot1:nodes", NodesKey("robot1"))
	assert.Equal(t, "devices:robot1:sensor:status", StatusKey("robot1", "sensor"))
	assert.Equal(t, "sensor:logs", LogKey("sensor"))
	assert.Equal(t, "sensor:start_execution", StartExecutionKey("sensor"))
	assert.Equal(t, "sensor:execution_time", ExecutionTimeKey("sensor"))
	assert.Equal(t, "commands:robot1:sensor", CommandChannel("robot1", "sensor"))
}

func TestLogSource(t *testing.T) {
	tests := []struct {
		key    string
		source string
		ok     bool
	}{
		{"sensor:logs", "sensor", true},
		{"dashboard:logs", "dashboard", true},
		{"devices:robot1:heartbeat", "", false},
		{":logs", "", false},
		{"logs", "", false},
	}
	for _, tt := range tests {
		source, ok := LogSource(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.source, source, tt.key)
	}
}
