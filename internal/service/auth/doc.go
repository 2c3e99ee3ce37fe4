// Package auth delegates sign-in to the hosted auth API and verifies the
// access tokens it issues. Passwords are forwarded, never stored or hashed.
package auth
