package middleware

import (
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/admin-transfer/pkg/audit"
	"github.com/doodlesbykumbi/admin-transfer/pkg/identity"
)

var bearerRegex = regexp.MustCompile(`^Bearer\s+(\S+)$`)

// JWTAuthenticator is middleware that proves which address the caller controls
type JWTAuthenticator struct {
	Verifier *identity.Verifier
	Audit    audit.Sink

	trusted func(ip string) bool
}

// NewJWTAuthenticator creates a new JWT authenticator middleware. trusted
// reports whether a peer may set X-Forwarded-For; it may be nil.
func NewJWTAuthenticator(verifier *identity.Verifier, trusted func(ip string) bool) *JWTAuthenticator {
	return &JWTAuthenticator{
		Verifier: verifier,
		Audit:    audit.Default(),
		trusted:  trusted,
	}
}

// ClientIP returns the address of the client, following X-Forwarded-For
// only when the direct peer is trusted.
func ClientIP(r *http.Request, trusted func(ip string) bool) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if trusted != nil && trusted(host) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	return net.ParseIP(host)
}

// Middleware returns an HTTP middleware that validates bearer tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteIP := ClientIP(r, j.trusted)

		authHeader := r.Header.Get("Authorization")
		if len(authHeader) == 0 {
			j.reject(w, remoteIP, "Authorization missing")
			return
		}

		matches := bearerRegex.FindStringSubmatch(authHeader)
		if len(matches) != 2 {
			j.reject(w, remoteIP, "Malformed authorization header")
			return
		}

		id, err := j.Verifier.Verify(matches[1])
		if errors.Is(err, jwt.ErrTokenExpired) {
			j.reject(w, remoteIP, "Token expired")
			return
		}
		if err != nil {
			j.reject(w, remoteIP, "Invalid token")
			return
		}
		id.WithRemoteIP(remoteIP)

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func (j *JWTAuthenticator) reject(w http.ResponseWriter, ip net.IP, reason string) {
	if j.Audit != nil {
		clientIP := "-"
		if ip != nil {
			clientIP = ip.String()
		}
		j.Audit.Log(audit.AuthenticateEvent{ClientIP: clientIP, ErrorMessage: reason})
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(reason))
}
