// Package api handles the JSON HTTP surface: request decoding and
// validation, translation to service calls, and error mapping. Routing
// and middleware assembly live with the server binary.
package api
