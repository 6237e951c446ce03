package ws

const (
	// client - server
	EventPing = "ping"

	// server - client
	EventReady = "ready"
	EventPong  = "pong"
	EventAck   = "ack"
	EventError = "error"
)

// RelayChannel is the Redis channel every process publishes broadcasts to.
const RelayChannel = "broadcast:rooms"
