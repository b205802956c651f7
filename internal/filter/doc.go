// Package filter runs chains of external transformation programs over a byte
// stream.
//
// Every Step declares how its process consumes and produces data using the
// two-character codes of classic shell pipeline templates:
//
//	--  reads stdin, writes stdout
//	f-  reads the file named by $IN, writes stdout
//	-f  reads stdin, writes the file named by $OUT
//	ff  reads $IN, writes $OUT
//
// A Runner concatenates the steps of all configured chains and executes them
// one child process at a time, feeding each step's output to the next one
// through a pipe or a scratch file as its mode requires.
package filter
