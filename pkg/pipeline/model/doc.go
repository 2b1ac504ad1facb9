// Package model holds the shared step descriptors and the option contract
// used by the pipeline engine and its observers (measure, drawer).
package model
