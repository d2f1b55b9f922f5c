// Package events reports the event to listener wiring of an application.
package events
