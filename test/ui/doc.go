// Package ui runs the scenario catalogue in a real browser against the
// in-process fixture Employee app. Tests skip when no browser can be started.
package ui
