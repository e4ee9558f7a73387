package block

// StandardTemplates is the built-in block set: enough statement, value and
// terminal shapes to build real programs and to exercise every connection
// kind. Apps may register more on top.
func StandardTemplates() []Template {
	return []Template{
		{
			Type: "text", HasOutput: true,
			Inputs: []InputTemplate{
				{Kind: InputDummy, Name: "ROW", Fields: []FieldTemplate{
					{Kind: "text", Name: "TEXT", Text: ""},
				}},
			},
		},
		{
			Type: "number", HasOutput: true,
			Inputs: []InputTemplate{
				{Kind: InputDummy, Name: "ROW", Fields: []FieldTemplate{
					{Kind: "number", Name: "NUM", Number: 0},
				}},
			},
		},
		{
			Type: "variable", HasOutput: true,
			Inputs: []InputTemplate{
				{Kind: InputDummy, Name: "ROW", Fields: []FieldTemplate{
					{Kind: "text", Name: "VAR", Text: "item"},
				}},
			},
		},
		{
			Type: "compare", HasOutput: true,
			Inputs: []InputTemplate{
				{Kind: InputValue, Name: "A", Shadow: "number"},
				{Kind: InputValue, Name: "B", Shadow: "number", Fields: []FieldTemplate{
					{Kind: "dropdown", Name: "OP", Options: []string{"==", "!=", "<", ">", "<=", ">="}, Text: "=="},
				}},
			},
		},
		{
			Type: "print", HasPrevious: true, HasNext: true,
			Inputs: []InputTemplate{
				{Kind: InputValue, Name: "VALUE", Shadow: "text", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "print"},
				}},
			},
		},
		{
			Type: "set_variable", HasPrevious: true, HasNext: true,
			Inputs: []InputTemplate{
				{Kind: InputDummy, Name: "NAME", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "set"},
					{Kind: "text", Name: "VAR", Text: "item"},
				}},
				{Kind: InputValue, Name: "VALUE", Shadow: "number"},
			},
		},
		{
			Type: "wait", HasPrevious: true, HasNext: true,
			Inputs: []InputTemplate{
				{Kind: InputValue, Name: "SECONDS", Shadow: "number", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "wait"},
				}},
			},
		},
		{
			Type: "repeat", HasPrevious: true, HasNext: true,
			Inputs: []InputTemplate{
				{Kind: InputValue, Name: "TIMES", Shadow: "number", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "repeat"},
				}},
				{Kind: InputStatement, Name: "DO"},
			},
		},
		{
			Type: "if", HasPrevious: true, HasNext: true,
			Inputs: []InputTemplate{
				{Kind: InputValue, Name: "COND", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "if"},
				}},
				{Kind: InputStatement, Name: "THEN"},
			},
		},
		// Terminal: no next notch, ends a chain.
		{
			Type: "stop", HasPrevious: true,
			Inputs: []InputTemplate{
				{Kind: InputDummy, Name: "ROW", Fields: []FieldTemplate{
					{Kind: "label", Name: "LABEL", Text: "stop"},
				}},
			},
		},
	}
}

// NewStandardFactory returns a factory pre-loaded with StandardTemplates.
func NewStandardFactory() *Factory {
	f := NewFactory()
	for _, t := range StandardTemplates() {
		if err := f.Register(t); err != nil {
			panic(err) // templates above are static and always valid
		}
	}
	return f
}
