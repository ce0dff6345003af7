// Package events defines the typed events dispatched onto the engine's event
// loop. All session mutation happens while handling one of these, so every
// asynchronous collaborator (speech capture, speech playback, the query
// service, the inactivity timer) reports back exclusively through them.
package events
