// Package model fits, selects, persists, and serves the fire-risk regressor.
//
// Every candidate reduces to a linear form (intercept plus one coefficient
// per feature column), so the persisted artifact is the same shape
// regardless of which candidate won selection.
package model
