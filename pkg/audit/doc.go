// Package audit provides the audit trail for admin transfer operations.
//
// Every propose, accept and cancel attempt, every direct pool registry change
// and every rejected bearer token is written as an RFC5424 syslog line and,
// when AUDIT_DATABASE_URL is set, persisted to the messages table.
//
// # Event Types
//
//   - TransferEvent: propose, accept and cancel, successful or not
//   - PoolEvent: register and set-admin on the built-in registry
//   - AuthenticateEvent: bearer token verification
//
// # Usage
//
//	audit.Log(audit.TransferEvent{
//	    Operation: audit.OperationAccept,
//	    Caller:    caller.String(),
//	    Pool:      pool.String(),
//	    Success:   true,
//	})
//
// Components that emit events take a Sink so tests can capture them;
// Default returns the process-wide sink configured from the environment.
package audit
