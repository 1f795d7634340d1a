package api

import (
	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/tokenizer"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type TokenizerSummary struct {
	Name    string `json:"name"`
	Object  string `json:"object"`
	Default bool   `json:"default"`
	Loaded  bool   `json:"loaded"`
}

type TokenizerList struct {
	Object string             `json:"object"`
	Data   []TokenizerSummary `json:"data"`
}

type TokenizerDetail struct {
	Name   string `json:"name"`
	Object string `json:"object"`
	tokenizer.Info
}

type TokenizeRequest struct {
	Words []string `json:"words"`
}

type TokenizeResponse struct {
	ID        string             `json:"id"`
	Object    string             `json:"object"`
	Created   int64              `json:"created"`
	Tokenizer string             `json:"tokenizer"`
	Words     [][]encoding.Token `json:"words"`
}

type EncodeInput struct {
	Text string  `json:"text"`
	Pair *string `json:"pair,omitempty"`
}

// EncodeRequest encodes Text (and Pair) or, when Inputs is set, the whole
// batch. AddSpecialTokens defaults to true.
type EncodeRequest struct {
	Text             string        `json:"text"`
	Pair             *string       `json:"pair,omitempty"`
	Inputs           []EncodeInput `json:"inputs,omitempty"`
	AddSpecialTokens *bool         `json:"add_special_tokens,omitempty"`
	MaxLength        int           `json:"max_length,omitempty"`
	Stride           int           `json:"stride,omitempty"`
	Direction        string        `json:"direction,omitempty"`
}

type EncodeResponse struct {
	ID        string              `json:"id"`
	Object    string              `json:"object"`
	Created   int64               `json:"created"`
	Tokenizer string              `json:"tokenizer"`
	Encoding  *encoding.Encoding  `json:"encoding,omitempty"`
	Encodings []encoding.Encoding `json:"encodings,omitempty"`
}

type CacheResizeRequest struct {
	Capacity *int `json:"capacity"`
}

type CacheResponse struct {
	Object    string            `json:"object"`
	Tokenizer string            `json:"tokenizer"`
	Stats     models.CacheStats `json:"stats"`
}
