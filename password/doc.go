// Package password hashes and verifies user passwords.
//
// New hashes are argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes ($2a$, $2b$, $2y$) written by earlier deployments are still
// accepted by [Hasher.Verify]; [Hasher.NeedsRehash] reports them so callers can
// store an argon2id hash after the next successful login.
//
// This package never stores passwords and never logs them.
package password
