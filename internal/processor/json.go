package processor

import (
	json "github.com/goccy/go-json"
)

// TypeTemplateProcessing is the "type" tag of a serialized processor.
const TypeTemplateProcessing = "TemplateProcessing"

type templateProcessingJSON struct {
	Type          string   `json:"type"`
	Single        Template `json:"single"`
	Pair          Template `json:"pair"`
	SpecialTokens Tokens   `json:"special_tokens"`
}

// MarshalJSON writes the templates and special tokens. The added token
// counts are derived and never written.
func (tp *TemplateProcessing) MarshalJSON() ([]byte, error) {
	return json.Marshal(templateProcessingJSON{
		Type:          TypeTemplateProcessing,
		Single:        tp.single,
		Pair:          tp.pair,
		SpecialTokens: tp.specialTokens,
	})
}

// UnmarshalJSON decodes the declared fields, then validates and derives the
// added token counts as NewTemplateProcessing does.
func (tp *TemplateProcessing) UnmarshalJSON(data []byte) error {
	var in templateProcessingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Type != "" && in.Type != TypeTemplateProcessing {
		return newTemplateError("expected type %q, got %q", TypeTemplateProcessing, in.Type)
	}
	built, err := NewTemplateProcessing(in.Single, in.Pair, in.SpecialTokens)
	if err != nil {
		return err
	}
	*tp = *built
	return nil
}

// Unmarshal decodes a serialized TemplateProcessing.
func Unmarshal(data []byte) (*TemplateProcessing, error) {
	tp := &TemplateProcessing{}
	if err := json.Unmarshal(data, tp); err != nil {
		return nil, err
	}
	return tp, nil
}
