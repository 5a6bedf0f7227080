package tablefsm

import "fmt"

// input is either an external event or the timeout signal
type input[E comparable] struct {
	event   E
	timeout bool
}

func eventInput[E comparable](e E) input[E] {
	return input[E]{event: e}
}

func timeoutInput[E comparable]() input[E] {
	return input[E]{timeout: true}
}

func (in input[E]) String() string {
	if in.timeout {
		return "<timeout>"
	}
	return fmt.Sprint(in.event)
}
