// Package store holds the application state shared by the plugin lifecycle
// machinery and the UI: the plugin command queue, the current plugin
// definitions, enabled-plugin sets, the current selection, and per-plugin
// message queues.
//
// The store follows a single-writer discipline: all mutation goes through
// Dispatch with a tagged Action, and the reducer is the only code that
// writes state. Readers receive deep-copied snapshots, so a snapshot is
// safe to use without locks and never observes later mutation.
//
// Subscriptions are throttled by default; WithRunSynchronously bypasses
// throttling for tests and WithFireImmediately delivers a snapshot at
// subscribe time.
package store
