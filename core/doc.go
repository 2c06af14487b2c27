// Package core provides the navigation model for exploring
// Wikipedia: Pages, the Session (State, Pointer, and Functions) that
// records where a user has been, and similarity ranking over a
// page's analyzed phrases.
//
// The primary type is Session, and the primary method is Register.
// A page enters a Session's State only through Register, which pushes
// the page's title onto the PageStack and selects it.  Pop and Unpop
// walk that stack back and forth.  Session.Check verifies that no
// title in a stack or in the Pointer is missing from State.Pages.
//
// Search results are PageRefs, which are either Resolved or
// Deferred.  A Deferred reference fetches its page only when
// Resolve is called.
//
// Walked, Stride, and Control record multi-step traversals.
package core
