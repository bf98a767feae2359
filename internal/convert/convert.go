// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs DOCX and Markdown conversions that carry review
// comments across intact. Each direction parses the source once and
// renders the result once through the pandoc transducer; comment metadata
// that pandoc does not understand is read from or written to the DOCX
// package directly and carried in Markdown as marker attributes.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/dmc/internal/ast"
	"github.com/pdiddy/dmc/internal/comments"
	"github.com/pdiddy/dmc/internal/docx"
	"github.com/pdiddy/dmc/internal/fsutil"
	"github.com/pdiddy/dmc/internal/pandoc"
	"github.com/pdiddy/dmc/pkg/types"
)

const (
	formatDocx  = "docx"
	extDocx     = ".docx"
	extMarkdown = ".md"
	filePerm    = 0o644
)

// Transducer parses documents to pandoc's tree and renders trees back.
// *pandoc.Transducer implements it.
type Transducer interface {
	Parse(ctx context.Context, input []byte, from string, args []string) (*ast.Document, error)
	Render(ctx context.Context, doc *ast.Document, to string, args []string) ([]byte, error)
}

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run types.Run) error
}

// Engine converts files according to a configuration.
type Engine struct {
	tr       Transducer
	cfg      types.Config
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder records every conversion run.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// New returns an Engine driving tr.
func New(tr Transducer, cfg types.Config, opts ...Option) *Engine {
	e := &Engine{tr: tr, cfg: cfg, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Request describes one conversion.
type Request struct {
	Source string
	// Dest defaults to Source with the other format's extension.
	Dest string
	// Args are passed through to pandoc.
	Args []string
	// Clean drops transport attributes from Markdown output.
	Clean bool
	// ReferenceDoc styles DOCX output.
	ReferenceDoc string
}

// Result reports what a conversion produced.
type Result struct {
	Operation types.Operation
	Source    string
	Dest      string
	Format    string
	Comments  int
	Changes   int
}

// IsDocx reports whether path names a DOCX file.
func IsDocx(path string) bool {
	return strings.EqualFold(filepath.Ext(path), extDocx)
}

// IsMarkdown reports whether path names a Markdown file.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Convert picks the direction from the source extension. A .docx source
// becomes Markdown and anything else is read as Markdown and becomes DOCX.
func (e *Engine) Convert(ctx context.Context, req Request) (Result, error) {
	if IsDocx(req.Source) {
		return e.DocxToMarkdown(ctx, req)
	}
	return e.MarkdownToDocx(ctx, req)
}

// ErrUnsupported reports a source of the wrong type for the operation.
var ErrUnsupported = errors.New("unsupported file type: expected .docx or .md")

// writerFormat is the Markdown flavour for output.
func (e *Engine) writerFormat(args []string) string {
	def := e.cfg.Markdown.Format
	if def == "" {
		def = "markdown"
	}
	return pandoc.WriterFormat(args, def)
}

// passthrough combines configured and caller pandoc options. Caller options
// come last so they win.
func (e *Engine) passthrough(args []string) []string {
	return append(append([]string{}, e.cfg.Pandoc.Args...), args...)
}

// DocxToMarkdown converts a DOCX file to Markdown. Thread, state and,
// unless Clean is set, transport metadata read from the package are
// written onto the comment markers before rendering.
func (e *Engine) DocxToMarkdown(ctx context.Context, req Request) (res Result, err error) {
	args := e.passthrough(req.Args)
	writer := e.writerFormat(args)
	res = Result{Operation: types.OperationToMarkdown, Source: req.Source, Dest: req.Dest, Format: writer}
	if res.Dest == "" {
		res.Dest = swapExt(req.Source, extMarkdown)
	}
	defer e.finish(ctx, &res, &err)()

	data, err := os.ReadFile(req.Source)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", req.Source, err)
	}
	pkg, err := docx.Read(data)
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}
	pkgComments, err := pkg.Comments()
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}

	reader := pandoc.ReaderFormat(args, formatDocx)
	doc, err := e.tr.Parse(ctx, data, reader, pandoc.ParseArgs(args, reader))
	if err != nil {
		return res, err
	}
	tree, err := comments.Extract(doc)
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}
	rec, err := comments.Reconcile(tree, pkgComments)
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}
	inbound, err := rec.Inbound()
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}

	clean := req.Clean || e.cfg.Markdown.Clean
	res.Comments = len(inbound)
	if res.Changes, err = comments.Annotate(doc, comments.BuildAttributes(inbound, !clean)); err != nil {
		return res, err
	}
	e.logger.Debug("annotated comment markers",
		zap.String("source", req.Source),
		zap.Int("comments", res.Comments),
		zap.Int("changes", res.Changes),
		zap.Bool("clean", clean))

	out, err := e.tr.Render(ctx, doc, writer, pandoc.RenderArgs(args))
	if err != nil {
		return res, err
	}
	if err := fsutil.WriteFile(res.Dest, out, filePerm); err != nil {
		return res, err
	}
	return res, nil
}

// MarkdownToDocx converts a Markdown file to DOCX. Pandoc writes the
// comments themselves; threads, resolution and transport identifiers are
// then written into the package's companion parts.
func (e *Engine) MarkdownToDocx(ctx context.Context, req Request) (res Result, err error) {
	args := e.passthrough(req.Args)
	res = Result{Operation: types.OperationToDocx, Source: req.Source, Dest: req.Dest, Format: formatDocx}
	if res.Dest == "" {
		res.Dest = swapExt(req.Source, extDocx)
	}
	defer e.finish(ctx, &res, &err)()

	input, err := os.ReadFile(req.Source)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", req.Source, err)
	}
	reader := pandoc.ReaderFormat(args, pandoc.MarkdownReader(e.writerFormat(nil)))
	doc, err := e.tr.Parse(ctx, input, reader, pandoc.ParseArgs(args, reader))
	if err != nil {
		return res, err
	}
	tree, err := comments.Extract(doc)
	if err != nil {
		return res, fmt.Errorf("%s: %w", req.Source, err)
	}
	res.Comments = len(tree)

	renderArgs := pandoc.RenderArgs(args)
	ref := req.ReferenceDoc
	if ref == "" {
		ref = e.cfg.Docx.ReferenceDoc
	}
	if ref != "" && !hasOption(renderArgs, "--reference-doc") {
		renderArgs = append(renderArgs, "--reference-doc="+ref)
	}
	out, err := e.tr.Render(ctx, doc, formatDocx, renderArgs)
	if err != nil {
		return res, err
	}

	pkg, err := docx.Read(out)
	if err != nil {
		return res, fmt.Errorf("reading rendered DOCX: %w", err)
	}
	if len(tree) > 0 {
		pkgComments, err := pkg.Comments()
		if err != nil {
			return res, fmt.Errorf("reading rendered DOCX: %w", err)
		}
		rec, err := comments.Reconcile(tree, pkgComments)
		if err != nil {
			return res, fmt.Errorf("%s: %w", req.Source, err)
		}
		outbound := rec.Outbound()
		if err := pkg.ApplyComments(outbound); err != nil {
			return res, fmt.Errorf("writing comment metadata: %w", err)
		}
		res.Changes = len(outbound)
	}
	if err := pkg.WriteFile(res.Dest, filePerm); err != nil {
		return res, err
	}
	return res, nil
}

func hasOption(args []string, long string) bool {
	for _, a := range args {
		if a == long || strings.HasPrefix(a, long+"=") {
			return true
		}
	}
	return false
}

// AnnotateFile writes set onto the comment markers of the Markdown file at
// src and renders it to dest, or back to src when dest is empty. It returns
// the number of attribute values that changed.
func (e *Engine) AnnotateFile(ctx context.Context, src, dest string, set comments.AttributeSet, args []string) (n int, err error) {
	if dest == "" {
		dest = src
	}
	res := Result{Operation: types.OperationAnnotate, Source: src, Dest: dest}
	defer e.finish(ctx, &res, &err)()

	doc, writer, err := e.parseMarkdown(ctx, src, args)
	if err != nil {
		return 0, err
	}
	res.Format = writer
	if n, err = comments.Annotate(doc, set); err != nil {
		return 0, fmt.Errorf("%s: %w", src, err)
	}
	res.Changes = n
	if err := e.renderMarkdown(ctx, doc, writer, dest, args); err != nil {
		return 0, err
	}
	return n, nil
}

// StripFile writes a copy of the Markdown file at src to dest with every
// transport attribute removed from the comment markers. src is never
// modified. It returns the number of attributes removed.
func (e *Engine) StripFile(ctx context.Context, src, dest string, args []string) (n int, err error) {
	res := Result{Operation: types.OperationStrip, Source: src, Dest: dest}
	defer e.finish(ctx, &res, &err)()

	if dest == "" || sameFile(src, dest) {
		return 0, fmt.Errorf("strip needs a destination other than %s", src)
	}
	doc, writer, err := e.parseMarkdown(ctx, src, args)
	if err != nil {
		return 0, err
	}
	res.Format = writer
	if n, err = comments.Strip(doc); err != nil {
		return 0, fmt.Errorf("%s: %w", src, err)
	}
	res.Changes = n
	if err := e.renderMarkdown(ctx, doc, writer, dest, args); err != nil {
		return 0, err
	}
	return n, nil
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func (e *Engine) parseMarkdown(ctx context.Context, path string, args []string) (*ast.Document, string, error) {
	args = e.passthrough(args)
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	writer := e.writerFormat(args)
	reader := pandoc.ReaderFormat(args, pandoc.MarkdownReader(writer))
	doc, err := e.tr.Parse(ctx, input, reader, pandoc.ParseArgs(args, reader))
	if err != nil {
		return nil, "", err
	}
	return doc, writer, nil
}

func (e *Engine) renderMarkdown(ctx context.Context, doc *ast.Document, writer, dest string, args []string) error {
	out, err := e.tr.Render(ctx, doc, writer, pandoc.RenderArgs(e.passthrough(args)))
	if err != nil {
		return err
	}
	return fsutil.WriteFile(dest, out, filePerm)
}

// Inspect returns the comments of a DOCX or Markdown file. DOCX files are
// read from the package without invoking pandoc.
func (e *Engine) Inspect(ctx context.Context, path string, args []string) ([]types.Comment, error) {
	if IsDocx(path) {
		pkg, err := docx.Open(path)
		if err != nil {
			return nil, err
		}
		list, err := pkg.Comments()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return list, nil
	}
	if !IsMarkdown(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	doc, _, err := e.parseMarkdown(ctx, path, args)
	if err != nil {
		return nil, err
	}
	list, err := comments.Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// finish logs a completed operation and records it when a recorder is
// set. Call it deferred with the named result and error.
func (e *Engine) finish(ctx context.Context, res *Result, errp *error) func() {
	start := e.now()
	return func() {
		run := types.Run{
			Operation: res.Operation,
			Source:    res.Source,
			Dest:      res.Dest,
			Format:    res.Format,
			Comments:  res.Comments,
			Changes:   res.Changes,
			Status:    types.RunSucceeded,
			StartedAt: start.UTC(),
			Duration:  e.now().Sub(start),
		}
		if *errp != nil {
			run.Status = types.RunFailed
			run.Error = (*errp).Error()
			e.logger.Debug("conversion failed", zap.String("operation", string(run.Operation)), zap.String("source", run.Source), zap.Error(*errp))
		} else {
			e.logger.Info("conversion finished",
				zap.String("operation", string(run.Operation)),
				zap.String("source", run.Source),
				zap.String("dest", run.Dest),
				zap.Int("comments", run.Comments),
				zap.Int("changes", run.Changes),
				zap.Duration("elapsed", run.Duration))
		}
		if e.recorder == nil {
			return
		}
		if err := e.recorder.Record(ctx, run); err != nil {
			e.logger.Warn("recording conversion history", zap.Error(err))
		}
	}
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertBatch converts each path the way Convert does, printing one
// status line per file to w and a summary at the end. When accept is set,
// paths it rejects are skipped. A failure does not stop the batch.
func (e *Engine) ConvertBatch(ctx context.Context, paths []string, tmpl Request, accept func(string) bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", p, err)
			result.Failed++
			continue
		}
		if accept != nil && !accept(p) {
			fmt.Fprintf(w, "skipped: %s (wrong file type)\n", p)
			result.Skipped++
			continue
		}
		req := tmpl
		req.Source = p
		req.Dest = ""
		res, err := e.Convert(ctx, req)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", p, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "converted: %s -> %s (%d comments)\n", p, res.Dest, res.Comments)
		result.Converted++
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
