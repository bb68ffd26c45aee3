/*
Package ports defines the interfaces between the workflow core and its
external collaborators: durable session storage, intent classification, and
outline/slide generation. Adapters live under internal/adapters; the core
never depends on a concrete implementation.
*/
package ports
