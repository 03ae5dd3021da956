package invocation

import "github.com/oriys/actoredge/envelope"

// Data is the wire form of one method call: generics, positional
// arguments (each independently serialized, in declaration order), and
// optional return/error type hints. Once produced by Encoder.Finalize it
// is immutable.
type Data struct {
	GenericSubstitutions []string
	Arguments            [][]byte
	ArgumentManifests    []envelope.Manifest
	IsVoid               bool
	ReturnTypeHint       string
	ErrorTypeHint        string
}

// ResultKind tags which variant an Result holds.
type ResultKind uint8

const (
	// ResultSuccess carries a non-void return value.
	ResultSuccess ResultKind = iota
	// ResultVoid carries a successful void return.
	ResultVoid
	// ResultFailure carries a thrown/returned error.
	ResultFailure
)

// Result is the tagged-union outcome of one method invocation, as it
// travels back to the caller.
type Result struct {
	Kind          ResultKind
	Payload       []byte
	Manifest      envelope.Manifest
	ErrorTypeHint string
}
