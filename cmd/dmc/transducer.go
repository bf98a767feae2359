// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/dmc/internal/ast"
	"github.com/pdiddy/dmc/internal/pandoc"
	"github.com/pdiddy/dmc/pkg/types"
)

// lazyTransducer locates pandoc on first use so that commands reading only
// DOCX packages work without it.
type lazyTransducer struct {
	cfg    types.PandocConfig
	logger *zap.Logger

	once sync.Once
	tr   *pandoc.Transducer
	err  error
}

func (l *lazyTransducer) get() (*pandoc.Transducer, error) {
	l.once.Do(func() {
		l.tr, l.err = pandoc.New(l.cfg, pandoc.WithLogger(l.logger))
	})
	return l.tr, l.err
}

func (l *lazyTransducer) Parse(ctx context.Context, input []byte, from string, args []string) (*ast.Document, error) {
	tr, err := l.get()
	if err != nil {
		return nil, err
	}
	return tr.Parse(ctx, input, from, args)
}

func (l *lazyTransducer) Render(ctx context.Context, doc *ast.Document, to string, args []string) ([]byte, error) {
	tr, err := l.get()
	if err != nil {
		return nil, err
	}
	return tr.Render(ctx, doc, to, args)
}

func (l *lazyTransducer) Version(ctx context.Context) (string, error) {
	tr, err := l.get()
	if err != nil {
		return "", err
	}
	return tr.Version(ctx)
}
