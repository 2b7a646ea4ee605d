package program

import "errors"

// Front-end-style sentinel errors for the two discovery algorithms
// spec.md §6 names explicitly.
var (
	errNoProgramPackage    = errors.New("program: no program package assembled")
	errNoMainFunction      = errors.New("NoMainFunction: no function named main in the program package")
	errWrongMainDefinition = errors.New("WrongMainDefinition: main must take no parameters, no type parameters, and return Unit or Int32")
)
