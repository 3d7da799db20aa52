package crypto

import "github.com/awnumar/memguard"

// Wipe overwrites b with zeros.
//
// memguard's wipe is written so the compiler cannot drop it as a dead
// store. Copies the runtime made earlier (stack growth, GC moves) are out
// of reach, so treat this as best-effort.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	memguard.WipeBytes(b)
}
