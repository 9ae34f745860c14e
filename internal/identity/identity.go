// Package identity derives privacy-preserving storage keys from raw request
// metadata. Raw client IPs never reach the persistent store: they are
// optionally masked at the network level and always salted and hashed first.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// UnknownIP is the sentinel for an unresolvable client address. It is never
// hashed so callers can recognize it as an invalid key.
const UnknownIP = "unknown"

// Policy controls how raw IPs are transformed into storage keys.
type Policy struct {
	Salt      string
	Anonymize bool
}

// ResolveClientIP extracts the client IP from request headers: the first
// comma-separated value of X-Forwarded-For, then X-Real-IP, then the
// transport-level peer address, then UnknownIP.
func ResolveClientIP(headers map[string]string, remoteAddr string) string {
	if forwarded := headers["x-forwarded-for"]; forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	if realIP := headers["x-real-ip"]; realIP != "" {
		return realIP
	}

	if remoteAddr != "" {
		return remoteAddr
	}

	return UnknownIP
}

// AnonymizeIP masks an IP at the network level: the last IPv4 octet is zeroed,
// an IPv6 address is truncated to its first four groups. Values that do not
// parse into the expected shape pass through unchanged.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == UnknownIP {
		return UnknownIP
	}

	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) > 4 {
			return strings.Join(parts[:4], ":") + "::"
		}
		return ip
	}

	parts := strings.Split(ip, ".")
	if len(parts) == 4 {
		return strings.Join(parts[:3], ".") + ".0"
	}
	return ip
}

// HashIP hashes an IP with the configured salt using SHA-256. The sentinel
// UnknownIP passes through unchanged.
func HashIP(ip, salt string) string {
	if ip == "" || ip == UnknownIP {
		return UnknownIP
	}

	sum := sha256.Sum256([]byte(ip + salt))
	return hex.EncodeToString(sum[:])
}

// StorageKey transforms a raw IP into the key used to look up and store a
// visitor. Deterministic and pure given (ip, policy): identical inputs always
// yield the identical key.
func StorageKey(ip string, policy Policy) string {
	if policy.Anonymize {
		return HashIP(AnonymizeIP(ip), policy.Salt)
	}
	return HashIP(ip, policy.Salt)
}
