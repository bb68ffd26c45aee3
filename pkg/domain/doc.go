/*
Package domain holds the entity model for the outline-building workflow.

It defines the Slide and Outline (strawman) entities, the Session that carries
conversation state across turns, and the classified Intent produced per turn.
The package has no dependencies on stores or transports; invariants that must
hold after every mutation (contiguous slide numbering, stable slide ids,
well-formed asset briefs) are enforced here, at the model boundary.
*/
package domain
