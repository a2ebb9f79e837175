// Package scope binds paired enter and exit actions to a block of code.
//
// A guard runs its enter action when it is constructed and its exit action
// exactly once when the block ends, however the block ends. Three shapes are
// provided, all backed by the same generic guard:
//
//   - [Stateless]: enter() / exit(), exit can be permanently disabled with
//     [Stateless.Invalidate].
//   - [Stateful]: enter() S / exit(S), exit always runs with the value enter
//     returned.
//   - [Cancelable]: like Stateful, plus [Cancelable.Invalidate] and
//     [Cancelable.Validate] for commit/rollback style teardown.
//
// # Binding a guard to a block
//
// The range-over-func binders run the body exactly once and tear the guard
// down before the statement after the loop runs, including on return,
// break or panic:
//
//	for g := range scope.Bind(begin, rollback) {
//	    if err := apply(); err != nil {
//	        return err // rollback runs
//	    }
//	    g.Invalidate() // committed, rollback skipped
//	}
//
// The same is available as closures ([With], [Run]) or, for manual
// lifetimes, as a constructor plus a deferred Close:
//
//	g := scope.New(begin, rollback)
//	defer g.Close()
//
// Guards must not be copied after construction; they are always handled
// through pointers.
package scope
