// Package notify delivers new citation notifications.
//
// ConsoleNotifier writes one line per notification to a writer, usually
// stdout. EmailNotifier sends each notification as a plain-text email over
// SMTP. Use New to build the notifier selected in the settings.
package notify
