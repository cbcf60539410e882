package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/lecturefeed/pkg/logger"
)

type traceKey struct{}

func fromCtx(key string) logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(traceKey{}).(string)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String(key, v), true
	}
}

func TestContextHandler(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), traceKey{}, "from-ctx")

	t.Run("adds extracted attribute", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(fromCtx("identifier")))

		log.InfoContext(ctx, "msg")
		assert.Equal(t, "from-ctx", decode(t, buf)["identifier"])
	})

	t.Run("record attribute wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(fromCtx("identifier")))

		log.InfoContext(ctx, "msg", slog.String("identifier", "explicit"))
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"identifier"`)))
		assert.Equal(t, "explicit", decode(t, buf)["identifier"])
	})

	t.Run("with attribute wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithAttr(slog.String("service", "static")),
			logger.WithContextExtractors(fromCtx("identifier"), fromCtx("service")),
		).With(slog.String("identifier", "bound"))

		log.InfoContext(ctx, "msg")
		entry := decode(t, buf)
		assert.Equal(t, "bound", entry["identifier"])
		assert.Equal(t, "static", entry["service"])
	})

	t.Run("first extractor wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		second := func(context.Context) (slog.Attr, bool) { return slog.String("identifier", "second"), true }
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(fromCtx("identifier"), second))

		log.InfoContext(ctx, "msg")
		assert.Equal(t, "from-ctx", decode(t, buf)["identifier"])
	})

	t.Run("group opens a new scope", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(fromCtx("identifier"))).
			With(slog.String("identifier", "outer")).
			WithGroup("channel")

		log.InfoContext(ctx, "msg")
		entry := decode(t, buf)
		assert.Equal(t, "outer", entry["identifier"])
		assert.Equal(t, map[string]any{"identifier": "from-ctx"}, entry["channel"])
	})

	t.Run("nothing in context", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(fromCtx("identifier"), nil))

		log.InfoContext(context.Background(), "msg")
		assert.NotContains(t, decode(t, buf), "identifier")
	})
}

func TestNewContextHandler_NoExtractors(t *testing.T) {
	t.Parallel()

	next := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	assert.Same(t, next, logger.NewContextHandler(next, nil))
}
