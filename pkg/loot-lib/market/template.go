// Package market builds and reads the non-custodial marketplace listing
// script and its two unlocking strategies: an authorized cancel and a
// signature-free purchase whose validity rests entirely on the listing
// contract re-deriving the transaction outputs it was locked to.
package market

import "encoding/hex"

// The bracketing byte templates of the compiled listing contract. The
// contract has exactly two spending branches selected by a trailing stack
// flag: OP_1 runs the cancel branch (a P2PKH check against the embedded
// cancel authority hash), OP_0 runs the purchase branch (push-tx output
// introspection against the embedded payment descriptor).
//
// These are immutable process-lifetime constants: decoded once at package
// init, never mutated. The cancel authority hash and the serialized payment
// descriptor are pushed between prefix and suffix at listing build time.
const (
	lockPrefixHex = "2097dfd76851bf465e8f715593b217714858bbe9570ff3bd5e33840a34e2" +
		"0ff0262102ba79df5f8ae7604a9830f03c7933028186aede0675a16f025dc4f8be8e" +
		"ec0382201008ce7480da41702918d1ec8e6849ba32b4d65b1e40dc669c31a1e6306b" +
		"266c0000"

	lockSuffixHex = "615179547a75537a537a537a0079537a75527a527a7575615579008763" +
		"567901c161517957795779210ac407f0e4bd44bfc207355a778b046225a7068fc59e" +
		"e7eda43ad905aadbffc800206c266b30e6a1319c66dc401e5bd6b432ba49688eecd1" +
		"18297041da8074ce081059795679615679aa0079610079517f7c517f7c517f7c517f" +
		"7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c" +
		"517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c51" +
		"7f7c517f7c517f7c517f7c517f7c7c7e517f7c517f7c517f7c517f7c517f7c517f7c" +
		"517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c51" +
		"7f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f7c517f" +
		"7c517f7c517f7c7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c" +
		"7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c7e7c" +
		"7e01007e81517a7561517a75619c77777777777777777767557951876351795779a9" +
		"876957795779ac777777777777777767006868"
)

var (
	lockPrefix = mustDecodeTemplate(lockPrefixHex)
	lockSuffix = mustDecodeTemplate(lockSuffixHex)
)

func mustDecodeTemplate(s string) []byte {
	buf, err := hex.DecodeString(s)
	if err != nil {
		panic("market: invalid listing template: " + err.Error())
	}
	return buf
}
