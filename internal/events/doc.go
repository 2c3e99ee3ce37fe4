// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines the change notifications that flow from the task
// table to the rest of the application. Realtime sources translate backend
// notifications into ChangeEvent values and hand them to an EventEmitter;
// the query cache and the SSE stream register as handlers without either
// side knowing about the other.
//
// The primary components are:
//   - ChangeEvent: a single insert, update or delete on a watched table
//   - EventHandler: interface for components that react to changes
//   - EventEmitter: interface for components that publish changes
package events
