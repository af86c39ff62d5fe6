// Package module builds interlocking magnet modules: a block with a
// magnet socket in its top face, split along Z into a lower half that
// carries a peg and an upper half that carries the mating socket, each
// half with a secondary magnet socket.
//
// Frame: blocks are centered on X/Y with their base at z = 0.
//
// Every operation validates its inputs against a solid-free plan before
// touching the kernel, so a rejected request performs no boolean work.
package module
