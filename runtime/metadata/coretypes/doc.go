// Package coretypes registers the built-in metadata families: metadata and
// loader roots, objects, fields, attributes, validators, keys and views.
// Importing the package adds its providers to the self-registered set used
// by metadata.Default; Strategy returns them for explicit discovery.
package coretypes
