// Package test contains helpers shared by the tests of this module.
package test

import (
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

// PartyIDs returns the ids 1..n.
func PartyIDs(n int) party.IDSlice {
	return party.Range(n)
}
