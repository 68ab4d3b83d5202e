// Package util holds small string helpers shared by the configuration
// surfaces.
package util
