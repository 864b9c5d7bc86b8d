// Package graph defines the prop design graph produced by evaluating a prop
// script. The graph is an immutable DAG of primitives, transforms and groups;
// root groups carry a role saying whether their geometry is the visual
// (reference) mesh or the physics (collision) mesh of the prop.
package graph
