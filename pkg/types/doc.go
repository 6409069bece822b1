// Package types defines the Entry entity, the Repository interface, the
// storage configuration, and the standard errors shared by every stowlog
// component.
package types
