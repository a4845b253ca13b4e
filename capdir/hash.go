package capdir

import "hash/crc32"

import "golang.org/x/text/cases"

var folder = cases.Fold()

// Computes the hash of a caption token. Tokens are case insensitive,
// so "NPC_Citizen.Hello" and "npc_citizen.hello" hash the same.
func Hash(token string) uint32 {
	return crc32.ChecksumIEEE([]byte(folder.String(token)))
}
