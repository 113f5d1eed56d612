// Package alert evaluates alerting rules against the device registry.
//
// Three rules exist. The threshold rule and the peer-consistency rule run
// per accepted message; the inactivity rule runs on a periodic sweep. All
// three push their output through the Emitter boundary fire-and-forget:
// alerts are never stored, deduplicated or rate-limited, so a device that
// keeps exceeding keeps alerting and a silent device is reported offline on
// every sweep.
package alert
