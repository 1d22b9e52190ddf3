//go:build !darwin

package inject

const pasteModifier = "ctrl"
