// Package categories validates model-claimed categories against the caller's
// configured set and removes near-duplicate flags.
//
// In closed mode a category must match an enabled name case-insensitively and
// is rewritten to the configured casing; anything else is dropped. In open
// mode every non-empty name is accepted, including ones the model invents.
package categories
