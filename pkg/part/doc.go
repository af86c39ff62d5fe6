// Package part defines the data model shared by module construction and
// export: dimensions, socket and peg specifications, the Part bookkeeping
// that travels with every kernel solid, and the error taxonomy.
package part
