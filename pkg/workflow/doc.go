/*
Package workflow implements the five-state conversation machine:

	GREETING → CLARIFY → PLAN → GENERATE_OUTLINE → REFINE_OUTLINE

Transitions are table-driven. The machine only moves forward on the relevant
accept/submit intent; the one backward edge is an explicit plan rejection.
REFINE_OUTLINE is the terminal steady state and processes refinement turns
indefinitely. Ambiguous or low-confidence turns never advance the state: the
machine holds and re-prompts.
*/
package workflow
