// Package command implements the line-oriented command language of the pesh shell.
//
// A line is parsed into exactly one Op. The grammar is small and strict: the
// whole line must be consumed, and anything that does not match is rejected
// with a *ParseError (which matches ErrParse via errors.Is).
//
// # Grammar
//
//	line      := command | WS*
//	command   := set_cmd | del_cmd | get_cmd | exit_cmd | help_cmd
//	set_cmd   := "set" WS+ metric WS* "=" WS* number
//	del_cmd   := "del" WS+ metric
//	get_cmd   := "get" WS+ metric
//	exit_cmd  := "exit" | "quit"
//	help_cmd  := "help"
//	metric    := name ("[" tags "]")?
//	tags      := (key WS* "=" WS* string) ("," key WS* "=" WS* string)*
//
// Names and tag keys are ASCII letters only. Tag values are double-quoted
// strings where \" and \\ are the only escapes. Numbers are decimal
// floating-point literals, optionally signed, with optional fraction and
// exponent; inf, infinity and nan are accepted case-insensitively.
//
// # Usage
//
//	op, err := command.Parse(`set requests[path="/api"] = 42`)
//	if errors.Is(err, command.ErrParse) {
//	    // malformed line
//	}
//	switch op.Kind {
//	case command.KindSet:
//	    // op.Metric, op.Value
//	}
package command
