package ports

// MessageGateway defines the interface for the inbound mail gateway
type MessageGateway interface {
	// Start starts accepting messages
	Start() error

	// Stop stops the gateway
	Stop() error
}
