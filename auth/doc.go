// Package auth implements account registration, password login and bearer
// token authentication.
//
// Tokens are HS256 JWTs whose subject is the user id. They are stateless by
// default; configuring a RevocationStore makes logout invalidate the token
// until it would have expired anyway.
package auth
