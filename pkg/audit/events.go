package audit

import "fmt"

// Transfer operations recorded in TransferEvent.Operation.
const (
	OperationPropose = "propose"
	OperationAccept  = "accept"
	OperationCancel  = "cancel"
)

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

// TransferEvent records a propose, accept or cancel attempt.
type TransferEvent struct {
	Operation    string
	Caller       string
	ClientIP     string
	Pool         string
	CurrentAdmin string
	NewAdmin     string
	Success      bool
	ErrorMessage string
}

func (e TransferEvent) MessageID() string {
	return "transfer-" + e.Operation
}

func (e TransferEvent) Message() string {
	caller := e.Caller
	if caller == "" {
		caller = "anonymous"
	}

	var msg string
	switch e.Operation {
	case OperationPropose:
		msg = fmt.Sprintf("admin transfer of pool %s to %s", e.Pool, e.NewAdmin)
	case OperationAccept:
		msg = fmt.Sprintf("acceptance of pool %s by %s", e.Pool, e.NewAdmin)
	case OperationCancel:
		msg = fmt.Sprintf("cancellation of transfer of pool %s back to %s", e.Pool, e.CurrentAdmin)
	default:
		msg = fmt.Sprintf("%s on pool %s", e.Operation, e.Pool)
	}

	if e.Success {
		return fmt.Sprintf("%s completed %s", caller, msg)
	}
	out := fmt.Sprintf("%s failed %s", caller, msg)
	if e.ErrorMessage != "" {
		out += ": " + e.ErrorMessage
	}
	return out
}

func (e TransferEvent) Severity() Severity {
	return severity(e.Success)
}

func (e TransferEvent) Facility() int {
	return FacilityAuthPriv
}

func (e TransferEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Caller,
		},
		SDIDSubject: {
			"pool": e.Pool,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
		SDIDTransfer: {},
	}
	if e.CurrentAdmin != "" {
		sd[SDIDTransfer]["current_admin"] = e.CurrentAdmin
	}
	if e.NewAdmin != "" {
		sd[SDIDTransfer]["new_admin"] = e.NewAdmin
	}
	return sd
}

// PoolEvent records a direct change to the built-in pool registry.
type PoolEvent struct {
	Operation    string // "register" or "set-admin"
	Caller       string
	ClientIP     string
	Pool         string
	Admin        string
	Success      bool
	ErrorMessage string
}

func (e PoolEvent) MessageID() string {
	return "pool"
}

func (e PoolEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %s pool %s with admin %s", e.Caller, pastTense(e.Operation), e.Pool, e.Admin)
	}
	msg := fmt.Sprintf("%s tried to %s pool %s", e.Caller, e.Operation, e.Pool)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func pastTense(op string) string {
	switch op {
	case "register":
		return "registered"
	case "set-admin":
		return "set admin of"
	}
	return op
}

func (e PoolEvent) Severity() Severity {
	return severity(e.Success)
}

func (e PoolEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PoolEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Caller,
		},
		SDIDSubject: {
			"pool":  e.Pool,
			"admin": e.Admin,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result(e.Success),
		},
	}
}

// AuthenticateEvent records a bearer token verification.
type AuthenticateEvent struct {
	Address      string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	who := e.Address
	if who == "" {
		who = "unknown caller"
	}
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", who)
	}
	msg := fmt.Sprintf("%s failed to authenticate", who)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	return severity(e.Success)
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuth
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"authenticator": "jwt",
			"user":          e.Address,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}
