// Package staging maintains the user-curated, ordered list of stages selected
// to run and the scratch directories runs leave behind.
//
// List enforces two invariants after every mutation: adjacent stages never
// decrease in category rank, and a single-select category contributes at most
// one stage. Mutations go through Toggle and Move only. While a run consumes
// the list it is frozen and both return ErrFrozen.
//
// The cleanup helpers prune per-stage intermediate directories under
// <output_dir>/intermediate.
package staging
