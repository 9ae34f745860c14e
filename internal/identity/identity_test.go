package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveClientIP_ForwardedForFirstValue(t *testing.T) {
	headers := map[string]string{
		"x-forwarded-for": "203.0.113.7, 70.41.3.18, 150.172.238.178",
		"x-real-ip":       "198.51.100.1",
	}

	ip := ResolveClientIP(headers, "192.0.2.1")

	assert.Equal(t, "203.0.113.7", ip)
}

func TestResolveClientIP_RealIPFallback(t *testing.T) {
	headers := map[string]string{
		"x-real-ip": "198.51.100.1",
	}

	ip := ResolveClientIP(headers, "192.0.2.1")

	assert.Equal(t, "198.51.100.1", ip)
}

func TestResolveClientIP_RemoteAddrFallback(t *testing.T) {
	ip := ResolveClientIP(map[string]string{}, "192.0.2.1")

	assert.Equal(t, "192.0.2.1", ip)
}

func TestResolveClientIP_Unknown(t *testing.T) {
	ip := ResolveClientIP(map[string]string{}, "")

	assert.Equal(t, UnknownIP, ip)
}

func TestAnonymizeIP_IPv4MasksLastOctet(t *testing.T) {
	assert.Equal(t, "1.2.3.0", AnonymizeIP("1.2.3.4"))
}

func TestAnonymizeIP_IPv6TruncatesToFourGroups(t *testing.T) {
	assert.Equal(t, "2001:db8:85a3:8d3::", AnonymizeIP("2001:db8:85a3:8d3:1319:8a2e:370:7348"))
}

func TestAnonymizeIP_ShortIPv6Unchanged(t *testing.T) {
	assert.Equal(t, "2001:db8:1:2", AnonymizeIP("2001:db8:1:2"))
}

func TestStorageKey_Deterministic(t *testing.T) {
	policy := Policy{Salt: "s", Anonymize: true}

	first := StorageKey("1.2.3.4", policy)
	second := StorageKey("1.2.3.4", policy)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestStorageKey_SaltChangesOutput(t *testing.T) {
	withSaltA := StorageKey("1.2.3.4", Policy{Salt: "a"})
	withSaltB := StorageKey("1.2.3.4", Policy{Salt: "b"})

	assert.NotEqual(t, withSaltA, withSaltB)
}

func TestStorageKey_AnonymizationChangesOutput(t *testing.T) {
	raw := StorageKey("1.2.3.4", Policy{Salt: "s", Anonymize: false})
	anonymized := StorageKey("1.2.3.4", Policy{Salt: "s", Anonymize: true})

	assert.NotEqual(t, raw, anonymized)
}

func TestStorageKey_AnonymizedSiblingsCollide(t *testing.T) {
	policy := Policy{Salt: "s", Anonymize: true}

	// Same /24, so the masked addresses hash identically.
	assert.Equal(t, StorageKey("1.2.3.4", policy), StorageKey("1.2.3.99", policy))
}

func TestStorageKey_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, UnknownIP, StorageKey(UnknownIP, Policy{Salt: "s", Anonymize: true}))
	assert.Equal(t, UnknownIP, StorageKey("", Policy{Salt: "s"}))
}
