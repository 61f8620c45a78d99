// Package notification provides the event bus of a test run.
//
// A Notifier publishes lifecycle events (run started/finished, test
// started/finished/failed/ignored, assumption failures) to registered
// Listeners. The bus is resilient: a listener that fails while handling an
// event is removed and its error is reported as a failure of the test
// mechanism, while every other listener keeps receiving events.
//
// Result is the listener aggregating counts and failures of a run, and
// TextListener renders a run for a terminal.
package notification
