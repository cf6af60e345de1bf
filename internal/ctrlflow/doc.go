// Package ctrlflow tracks control constructs while a unit is built in a
// single pass: brace matchers, statement-list builders, the if/else-if/else
// state machine, loop and switch stacks, and the checks that decide whether
// a keyword such as 'else', 'case' or 'break' is legal where it appears.
package ctrlflow
