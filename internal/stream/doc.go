// Package stream fans task change notifications out to browsers over
// server-sent events. Each signed-in user has a channel of their own; a
// change without a known owner goes to every channel.
package stream
