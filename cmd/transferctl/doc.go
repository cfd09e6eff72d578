// Command transferctl runs and drives the pool admin transfer service.
//
// A pool administrator hands a pool to a successor in two steps: the
// current admin proposes, which parks the pool with the service, and the
// successor accepts. Until then the current admin may cancel.
//
// # Quick Start
//
//	# Create keys for two authorities
//	transferctl keys generate --out alice.pem
//	transferctl keys generate --out bob.pem
//
//	# Run database migrations and start the server
//	transferctl db migrate
//	transferctl server
//
//	# Or run against in-memory state
//	transferctl server --memory
//
//	# Register a pool and move it from alice to bob
//	transferctl --key alice.pem pool register pool-a
//	transferctl --key alice.pem transfer propose pool-a <bob-address>
//	transferctl --key bob.pem transfer accept pool-a
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - PORT, BIND_ADDRESS: server listen address (default 0.0.0.0:8000)
//   - TRANSFER_CONFIG_PATH: directory holding transfer.yml
//   - TRANSFER_LOG_LEVEL: log level (debug, info, warn, error)
//   - TRANSFER_URL, TRANSFER_KEY_FILE: client defaults for --url and --key
//   - TRANSFER_AUDIT_ENABLED, AUDIT_DATABASE_URL: audit log sinks
package main
