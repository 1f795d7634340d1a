package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/tokenizer"
)

type Server struct {
	registry TokenizerProvider
	log      logger.Logger
	clock    func() time.Time
}

func NewServer(registry TokenizerProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		registry: registry,
		log:      log,
		clock:    time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/tokenizers", s.handleList)
	e.GET("/v1/tokenizers/:name", s.handleGet)
	e.POST("/v1/tokenizers/:name/tokenize", s.handleTokenize)
	e.POST("/v1/tokenizers/:name/encode", s.handleEncode)
	e.POST("/v1/tokenizers/:name/cache/clear", s.handleCacheClear)
	e.POST("/v1/tokenizers/:name/cache/resize", s.handleCacheResize)
}

func (s *Server) handleList(c *echo.Context) error {
	def := s.registry.Default()
	names := s.registry.Names()
	list := TokenizerList{Object: "list", Data: make([]TokenizerSummary, 0, len(names))}
	for _, name := range names {
		list.Data = append(list.Data, TokenizerSummary{
			Name:    name,
			Object:  "tokenizer",
			Default: name == def,
			Loaded:  s.registry.Loaded(name),
		})
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleGet(c *echo.Context) error {
	name, tok, err := s.lookup(c)
	if err != nil {
		return s.fail(c, err)
	}
	info, err := tok.Info()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, TokenizerDetail{Name: name, Object: "tokenizer", Info: info})
}

func (s *Server) handleTokenize(c *echo.Context) error {
	req, err := decodeJSON[TokenizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	if len(req.Words) == 0 {
		return writeBadRequest(c, "words must not be empty")
	}
	name, tok, err := s.lookup(c)
	if err != nil {
		return s.fail(c, err)
	}
	words, err := tok.TokenizeWords(req.Words)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, TokenizeResponse{
		ID:        newID("tok"),
		Object:    "tokenization",
		Created:   s.clock().Unix(),
		Tokenizer: name,
		Words:     words,
	})
}

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body")
	}
	opts, err := encodeOptions(req)
	if err != nil {
		return s.fail(c, err)
	}
	name, tok, err := s.lookup(c)
	if err != nil {
		return s.fail(c, err)
	}

	ctx := logger.WithContext(c.Request().Context(), s.log)
	resp := EncodeResponse{
		ID:        newID("enc"),
		Object:    "encoding",
		Created:   s.clock().Unix(),
		Tokenizer: name,
	}
	if len(req.Inputs) > 0 {
		inputs := make([]tokenizer.Input, len(req.Inputs))
		for i, in := range req.Inputs {
			inputs[i] = tokenizer.Input{Text: in.Text, Pair: in.Pair}
		}
		encs, err := tok.EncodeBatch(ctx, inputs, opts)
		if err != nil {
			return s.fail(c, err)
		}
		resp.Object = "list"
		resp.Encodings = encs
		return c.JSON(http.StatusOK, resp)
	}

	enc, err := tok.Encode(ctx, req.Text, req.Pair, opts)
	if err != nil {
		return s.fail(c, err)
	}
	resp.Encoding = &enc
	return c.JSON(http.StatusOK, resp)
}

func encodeOptions(req EncodeRequest) (tokenizer.EncodeOptions, error) {
	if len(req.Inputs) > 0 && (req.Text != "" || req.Pair != nil) {
		return tokenizer.EncodeOptions{}, newInvalidRequest("text and pair cannot be combined with inputs")
	}
	if req.MaxLength < 0 || req.Stride < 0 {
		return tokenizer.EncodeOptions{}, newInvalidRequest("max_length and stride must not be negative")
	}
	dir, err := encoding.ParseDirection(req.Direction)
	if err != nil {
		return tokenizer.EncodeOptions{}, err
	}
	opts := tokenizer.EncodeOptions{
		AddSpecialTokens: true,
		MaxLength:        req.MaxLength,
		Stride:           req.Stride,
		Direction:        dir,
	}
	if req.AddSpecialTokens != nil {
		opts.AddSpecialTokens = *req.AddSpecialTokens
	}
	return opts, nil
}

func (s *Server) handleCacheClear(c *echo.Context) error {
	name, tok, err := s.lookup(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := tok.Model().ClearCache(); err != nil {
		return s.fail(c, err)
	}
	return s.writeCache(c, name, tok)
}

func (s *Server) handleCacheResize(c *echo.Context) error {
	req, err := decodeJSON[CacheResizeRequest](c.Request().Body)
	if err != nil && !errors.Is(err, io.EOF) {
		return writeBadRequest(c, "invalid JSON body")
	}
	if req.Capacity == nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "capacity is required", "capacity", "")
	}
	name, tok, err := s.lookup(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := tok.Model().ResizeCache(*req.Capacity); err != nil {
		return s.fail(c, err)
	}
	return s.writeCache(c, name, tok)
}

func (s *Server) writeCache(c *echo.Context, name string, tok *tokenizer.Tokenizer) error {
	stats, err := tok.Model().CacheStats()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, CacheResponse{Object: "cache", Tokenizer: name, Stats: stats})
}

// lookup resolves the :name path parameter; "default" selects the
// registry's default tokenizer.
func (s *Server) lookup(c *echo.Context) (string, *tokenizer.Tokenizer, error) {
	name := c.Param("name")
	if name == "default" {
		name = s.registry.Default()
	}
	ctx := logger.WithContext(c.Request().Context(), s.log)
	tok, err := s.registry.Get(ctx, name)
	if err != nil {
		return name, nil, err
	}
	return name, tok, nil
}

func (s *Server) fail(c *echo.Context, err error) error {
	status, errType := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}
	return writeError(c, status, errType, err.Error(), "", "")
}
