package ports

// APIServer defines the interface for the HTTP API front end
type APIServer interface {
	// Start starts serving requests
	Start() error

	// Stop gracefully shuts the server down
	Stop() error
}
