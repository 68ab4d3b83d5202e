// Package logger provides structured logging for framegraph using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Render code tags its records with the node
// path and frame index so a soft failure can be traced to one frame.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("render")
//	log.Warn("job soft-failed", logger.Fields(logger.FieldNode, path, logger.FieldFrame, 12))
package logger
