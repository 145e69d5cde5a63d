// Package file stores settings in ~/.citetrack/config.toml.
//
// Dotted keys such as "notifications.smtp.port" map to nested TOML tables.
// Durations are written as Go duration strings.
package file
