package store

// HealthStore provides health check operations
type HealthStore interface {
	// CheckConnectivity verifies backend connectivity
	CheckConnectivity() error
}
