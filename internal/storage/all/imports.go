// Package all wires all built-in storage sinks into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete sink, which register
// their factories with the storage package. A blank import of this package
// makes the "workbook", "sqlite" and "postgres" storage kinds available at
// runtime.
//
// A binary that wants only a subset of sinks can blank-import the individual
// sink packages instead.
package all

import (
	_ "qbank/internal/storage/postgres"
	_ "qbank/internal/storage/sqlite"
	_ "qbank/internal/storage/workbook"
)
