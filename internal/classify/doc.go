// Package classify maps audio feature vectors to sound category labels.
//
// The classifier is a fixed, priority-ordered rule list: rules are tried in
// order and the first match wins. It is pure compute with no state and no
// dependencies, so it can be tested in isolation from the ingest and
// alerting machinery.
package classify
