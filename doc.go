// Package indieauth implements the server side of an IndieAuth-style
// authorization-code grant: issuing opaque authorization codes bound to a
// client and redirect target, exchanging them for HMAC-signed bearer tokens,
// and verifying tokens presented by resource servers.
package indieauth
