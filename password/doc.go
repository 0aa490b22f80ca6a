// Package password implements password hashing and verification with argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads cost parameters back out of the stored string, so old
// hashes stay verifiable after a parameter upgrade; [Hasher.NeedsRehash]
// tells the caller when to re-hash on the next successful login.
//
// This package owns hashing and verification only. Password policy and
// credential storage live with the caller, and plaintext is never logged.
package password
