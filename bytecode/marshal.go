package bytecode

import (
	"encoding/json"
	"fmt"
	"math"
)

// Marshal converts a Code object into a JSON representation. Code units
// nested in the constant pool are stored alongside and referenced by index.
func Marshal(code *Code) ([]byte, error) {
	state, err := stateFromCode(code)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Unmarshal converts a JSON representation into a Code object.
func Unmarshal(data []byte) (*Code, error) {
	var state codeState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return codeFromState(&state)
}

// Serialization types

type constantDef struct {
	Type string `json:"type"`
	// Value holds the type specific payload. Floats are stored as their
	// IEEE 754 bits so signed zeros and NaN payloads survive.
	Value json.RawMessage `json:"value,omitempty"`
}

type codeDef struct {
	Format          string        `json:"format"`
	Name            string        `json:"name"`
	QualName        string        `json:"qualname,omitempty"`
	Filename        string        `json:"filename,omitempty"`
	FirstLine       int           `json:"first_line"`
	ArgCount        int           `json:"arg_count"`
	PosOnlyArgCount int           `json:"posonly_arg_count"`
	KwOnlyArgCount  int           `json:"kwonly_arg_count"`
	Flags           Flags         `json:"flags"`
	StackSize       int           `json:"stack_size"`
	Code            []byte        `json:"code"`
	Constants       []constantDef `json:"constants"`
	Names           []string      `json:"names"`
	Varnames        []string      `json:"varnames,omitempty"`
	Cellvars        []string      `json:"cellvars,omitempty"`
	Freevars        []string      `json:"freevars,omitempty"`
	LineTable       []byte        `json:"line_table,omitempty"`
	ExceptionTable  []byte        `json:"exception_table,omitempty"`
}

type codeState struct {
	Codes []*codeDef `json:"codes"`
}

func stateFromCode(code *Code) (*codeState, error) {
	allCodes := code.Flatten()
	codeIndexMap := make(map[*Code]int, len(allCodes))
	for i, c := range allCodes {
		codeIndexMap[c] = i
	}
	state := &codeState{Codes: make([]*codeDef, len(allCodes))}
	for i, c := range allCodes {
		constants := make([]constantDef, len(c.constants))
		for j, k := range c.constants {
			def, err := marshalConstant(k, codeIndexMap)
			if err != nil {
				return nil, fmt.Errorf("code %q constant %d: %w", c.Name(), j, err)
			}
			constants[j] = def
		}
		m := c.meta
		state.Codes[i] = &codeDef{
			Format:          c.format,
			Name:            m.Name,
			QualName:        m.QualName,
			Filename:        m.Filename,
			FirstLine:       m.FirstLine,
			ArgCount:        m.ArgCount,
			PosOnlyArgCount: m.PosOnlyArgCount,
			KwOnlyArgCount:  m.KwOnlyArgCount,
			Flags:           m.Flags,
			StackSize:       c.stackSize,
			Code:            c.code,
			Constants:       constants,
			Names:           c.names,
			Varnames:        m.Varnames,
			Cellvars:        m.Cellvars,
			Freevars:        m.Freevars,
			LineTable:       c.lineTable,
			ExceptionTable:  c.exceptionTable,
		}
	}
	return state, nil
}

func codeFromState(state *codeState) (*Code, error) {
	if len(state.Codes) == 0 {
		return nil, fmt.Errorf("no code units in serialized state")
	}
	codes := make([]*Code, len(state.Codes))
	building := make([]bool, len(state.Codes))
	var build func(i int) (*Code, error)
	build = func(i int) (*Code, error) {
		if i < 0 || i >= len(codes) {
			return nil, fmt.Errorf("code index %d out of range", i)
		}
		if codes[i] != nil {
			return codes[i], nil
		}
		if building[i] {
			return nil, fmt.Errorf("code %d references itself", i)
		}
		building[i] = true
		def := state.Codes[i]
		constants := make([]any, len(def.Constants))
		for j, k := range def.Constants {
			v, err := unmarshalConstant(k, build)
			if err != nil {
				return nil, fmt.Errorf("code %q constant %d: %w", def.Name, j, err)
			}
			constants[j] = v
		}
		codes[i] = NewCode(CodeParams{
			Format:    def.Format,
			Code:      def.Code,
			Constants: constants,
			Names:     def.Names,
			Meta: Meta{
				Name:            def.Name,
				QualName:        def.QualName,
				Filename:        def.Filename,
				FirstLine:       def.FirstLine,
				ArgCount:        def.ArgCount,
				PosOnlyArgCount: def.PosOnlyArgCount,
				KwOnlyArgCount:  def.KwOnlyArgCount,
				Flags:           def.Flags,
				Varnames:        def.Varnames,
				Cellvars:        def.Cellvars,
				Freevars:        def.Freevars,
			},
			StackSize:      def.StackSize,
			LineTable:      def.LineTable,
			ExceptionTable: def.ExceptionTable,
		})
		return codes[i], nil
	}
	return build(0)
}

func rawConstant(typ string, v any) (constantDef, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return constantDef{}, err
	}
	return constantDef{Type: typ, Value: data}, nil
}

func marshalConstant(c any, codeIndexMap map[*Code]int) (constantDef, error) {
	switch v := c.(type) {
	case nil:
		return constantDef{Type: "nil"}, nil
	case bool:
		return rawConstant("bool", v)
	case int:
		return rawConstant("int", v)
	case int64:
		return rawConstant("int64", v)
	case float64:
		return rawConstant("float", math.Float64bits(v))
	case string:
		return rawConstant("string", v)
	case []byte:
		return rawConstant("bytes", v)
	case []any:
		items := make([]constantDef, len(v))
		for i, item := range v {
			def, err := marshalConstant(item, codeIndexMap)
			if err != nil {
				return constantDef{}, err
			}
			items[i] = def
		}
		return rawConstant("tuple", items)
	case *Code:
		idx, ok := codeIndexMap[v]
		if !ok {
			return constantDef{}, fmt.Errorf("nested code %q not indexed", v.Name())
		}
		return rawConstant("code", idx)
	default:
		return constantDef{}, fmt.Errorf("unknown constant type: %T", c)
	}
}

func unmarshalConstant(def constantDef, code func(int) (*Code, error)) (any, error) {
	switch def.Type {
	case "nil":
		return nil, nil
	case "bool":
		var v bool
		err := json.Unmarshal(def.Value, &v)
		return v, err
	case "int":
		var v int
		err := json.Unmarshal(def.Value, &v)
		return v, err
	case "int64":
		var v int64
		err := json.Unmarshal(def.Value, &v)
		return v, err
	case "float":
		var bits uint64
		if err := json.Unmarshal(def.Value, &bits); err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case "string":
		var v string
		err := json.Unmarshal(def.Value, &v)
		return v, err
	case "bytes":
		var v []byte
		err := json.Unmarshal(def.Value, &v)
		return v, err
	case "tuple":
		var items []constantDef
		if err := json.Unmarshal(def.Value, &items); err != nil {
			return nil, err
		}
		tuple := make([]any, len(items))
		for i, item := range items {
			v, err := unmarshalConstant(item, code)
			if err != nil {
				return nil, err
			}
			tuple[i] = v
		}
		return tuple, nil
	case "code":
		var idx int
		if err := json.Unmarshal(def.Value, &idx); err != nil {
			return nil, err
		}
		c, err := code(idx)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown constant type: %q", def.Type)
	}
}
