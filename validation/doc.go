// Package validation checks job parameter structs and node paths.
//
// Struct tag validation runs after every configuration override so a job
// never observes parameters that violate its tags:
//
//	type DrawParams struct {
//	    MaxDrawn int `mapstructure:"maxDrawn" validate:"gte=-1"`
//	}
//	err := validation.Validate(params)
//
// Paths from the command line and the debug surface are checked with
// ConfigPath before they reach the configuration tree.
package validation
