// Package service provides application-level services for managing tasks.
//
// Services sit between the HTTP/CLI surfaces and the store. They own the
// query cache and decide when change events are emitted locally.
package service
