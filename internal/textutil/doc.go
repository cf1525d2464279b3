// Package textutil provides string helpers for turning story titles into
// file stems and free-form values into filesystem-safe tokens.
package textutil
