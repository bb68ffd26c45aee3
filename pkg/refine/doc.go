/*
Package refine applies classified refinement requests (UPDATE, CREATE,
DELETE) to an outline.

Every operation is a pure transformation: the input outline is never mutated,
and the result either satisfies all outline invariants (contiguous numbering,
unique ids) or the operation fails with a typed error. Slide targeting never
guesses: an unresolvable or ambiguous target is reported, not auto-resolved.
*/
package refine
