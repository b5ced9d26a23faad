// Package log provides the structured logging facade used across the queue
// runtime.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Entries flow through a Formatter
// (JSON or text) into one or more Outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	)
//	l = l.With(log.Component("batchqueue"), log.Str("process", "mailer"))
//	l.Info("batch saved", log.Int("items", 12))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config supporting JSON
// or text formatting. RedirectStdLog routes standard library log output from
// dependencies through the facade.
package log
