// Package config provides configuration management for the admin transfer
// service.
//
// # Configuration Sources
//
// Each attribute starts at its default, is overridden by the YAML file
// ($TRANSFER_CONFIG_PATH/transfer.yml, default /etc/admin-transfer) and then
// by TRANSFER_<ATTRIBUTE> environment variables. The source of every value
// is tracked and shown by `transferctl configuration show`.
//
// # Key Configuration Options
//
//   - protocol_address: identity the protocol uses towards pools
//   - allow_unauthenticated_propose: enable the unauthenticated propose form
//   - instance_ttl_days, instance_threshold_days: shared allowance window
//   - transfer_ttl_days, transfer_threshold_days: per-record window
//   - token_max_age_seconds: longest bearer token accepted
//   - log_level: zerolog level
//
// DATABASE_URL, PORT and BIND_ADDRESS are read directly by the commands
// that need them.
//
// Watch re-reads the file while the server runs; the server applies the new
// log level and retention windows without restarting.
package config
