package air

// Function is a translated function: its signature, parameter slots and
// (once the body import ran) its Code.
type Function struct {
	Name     string
	Type     TypeID // function type
	Params   []*Variable
	Variadic bool
	Code     *Code
}

// GlobalVariable is a translated module-level variable.
type GlobalVariable struct {
	Name string
	Type TypeID // pointer to the content type
}

// Module owns the translated functions and globals of one input module.
type Module struct {
	Name    string
	Funcs   []*Function
	Globals []*GlobalVariable
}
