package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mgmeyers/pdfannotate/annotate"
	"github.com/mgmeyers/pdfannotate/inspect"
	"github.com/mgmeyers/pdfannotate/layout"
	"github.com/mgmeyers/pdfannotate/locate"
	"github.com/mgmeyers/pdfannotate/logging"
	"github.com/mgmeyers/pdfannotate/pdfutils"
	"github.com/mgmeyers/pdfannotate/snippet"
)

type CLI struct {
	Config    string  `type:"path" env:"PDFANNOTATE_CONFIG" help:"YAML file with flag values"`
	LogLevel  string  `enum:"debug,info,warn,error" default:"info" env:"PDFANNOTATE_LOG_LEVEL" help:"Log level"`
	LogFormat string  `enum:"text,json" default:"text" env:"PDFANNOTATE_LOG_FORMAT" help:"Log format"`
	LineGap   float64 `default:"1.5" env:"PDFANNOTATE_LINE_GAP" help:"Vertical gap, in line heights, that starts a new text box"`

	Annotate annotateCmd `cmd:"" help:"Highlight and comment every occurrence of the search terms"`
	Locate   locateCmd   `cmd:"" help:"Print the occurrences of the search terms"`
	Snippets snippetsCmd `cmd:"" help:"Save an image of every occurrence of the search terms"`
	Inspect  inspectCmd  `cmd:"" help:"Print the annotations of a PDF as JSON"`
	Serve    serveCmd    `cmd:"" help:"Run the web front-end"`
}

func (c *CLI) layout() layout.Config {
	return layout.Config{VerticalGapThreshold: c.LineGap}
}

type output struct {
	io.Writer
}

type termFlags struct {
	Terms     []string `short:"t" name:"term" help:"Search term. Repeatable"`
	TermsFile string   `type:"existingfile" help:"File with one search term per line"`
}

type styleFlags struct {
	HighlightColor hexColor `default:"#ffff00" env:"PDFANNOTATE_HIGHLIGHT_COLOR" help:"Highlight color"`
	CommentColor   hexColor `default:"#ff0000" env:"PDFANNOTATE_COMMENT_COLOR" help:"Comment color"`
	Title          string   `default:"Comment" env:"PDFANNOTATE_TITLE" help:"Title (author) of the added annotations"`
}

func (s styleFlags) options() annotate.Options {
	opts := annotate.DefaultOptions()
	opts.HighlightColor = s.HighlightColor.Color
	opts.CommentColor = s.CommentColor.Color
	opts.Title = s.Title

	return opts
}

type annotateCmd struct {
	Input  string `arg:"" name:"input" type:"existingfile" help:"Path to input PDF"`
	Output string `short:"o" type:"path" help:"Output path. Defaults to <input>.annotated.pdf"`

	Match termFlags  `embed:""`
	Style styleFlags `embed:""`
}

func (c *annotateCmd) Run(cli *CLI, logger *slog.Logger, out *output) error {
	terms, err := c.Match.load()
	if err != nil {
		return err
	}

	dst := c.Output
	if dst == "" {
		dst = annotate.DefaultOutputPath(c.Input)
	}

	start := time.Now()

	ms, err := annotate.Run(c.Input, dst, terms, cli.layout(), c.Style.options())
	if err != nil {
		return err
	}

	logger.Info("annotated",
		"input", c.Input,
		"output", dst,
		"terms", len(terms),
		"occurrences", ms.Count(),
		"elapsed", time.Since(start))

	fmt.Fprintln(out, dst)

	return nil
}

type locateCmd struct {
	Input string `arg:"" name:"input" type:"existingfile" help:"Path to input PDF"`
	JSON  bool   `help:"Print the matches as JSON"`

	Match termFlags `embed:""`
}

func (c *locateCmd) Run(cli *CLI, logger *slog.Logger, out *output) error {
	terms, err := c.Match.load()
	if err != nil {
		return err
	}

	ms, err := locate.File(c.Input, terms, cli.layout())
	if err != nil {
		return err
	}

	logger.Debug("located", "input", c.Input, "occurrences", ms.Count())

	if c.JSON {
		return logOutput(out, ms)
	}

	for _, m := range ms {
		for _, o := range m.Occurrences {
			fmt.Fprintf(out, "%s\tpage %d\t%.2f %.2f %.2f %.2f\n", m.Term, o.Page+1, o.X1, o.Y1, o.X2, o.Y2)
		}
	}

	return nil
}

type snippetsCmd struct {
	Input       string  `arg:"" name:"input" type:"existingfile" help:"Path to input PDF"`
	Output      string  `short:"o" type:"path" required:"" help:"Output directory of the images"`
	BaseName    string  `short:"n" default:"snippet" help:"Base name of saved images"`
	Format      string  `short:"f" enum:"jpg,png" default:"jpg" help:"Image format. Supports png and jpg"`
	DPI         float64 `short:"d" default:"120" help:"Image DPI"`
	Quality     int     `short:"q" default:"90" help:"Image quality. Only applies to jpg images"`
	OCR         bool    `short:"e" help:"Recognise the text of every image with tesseract"`
	OCRLang     string  `short:"l" default:"eng" help:"Tesseract languages, joined with +"`
	TessPath    string  `default:"tesseract" env:"PDFANNOTATE_TESSERACT" help:"Path to the tesseract binary"`
	TessDataDir string  `type:"path" env:"TESSDATA_PREFIX" help:"Tesseract data directory"`

	Match termFlags `embed:""`
}

func (c *snippetsCmd) Run(cli *CLI, logger *slog.Logger, out *output) error {
	opts := snippet.DefaultOptions()
	opts.Dir = c.Output
	opts.BaseName = c.BaseName
	opts.Format = c.Format
	opts.DPI = c.DPI
	opts.Quality = c.Quality

	if c.OCR {
		tess := &pdfutils.Tesseract{Path: c.TessPath, Lang: c.OCRLang, DataDir: c.TessDataDir}
		if err := tess.Check(); err != nil {
			return err
		}
		opts.OCR = tess
	}

	terms, err := c.Match.load()
	if err != nil {
		return err
	}

	ms, err := locate.File(c.Input, terms, cli.layout())
	if err != nil {
		return err
	}

	snippets, err := snippet.File(c.Input, ms, opts)
	if err != nil {
		return err
	}

	logger.Info("saved snippets", "dir", c.Output, "count", len(snippets))

	return logOutput(out, snippets)
}

type inspectCmd struct {
	Input        string    `arg:"" name:"input" type:"existingfile" help:"Path to input PDF"`
	IgnoreBefore time.Time `short:"b" help:"Ignore annotations added before this date. Must be ISO 8601 formatted"`
	Sort         bool      `short:"s" help:"Sort by page and position"`
}

func (c *inspectCmd) Run(out *output) error {
	annots, err := inspect.File(c.Input, inspect.Options{
		IgnoreBefore: c.IgnoreBefore,
		Sort:         c.Sort,
	})
	if err != nil {
		return err
	}

	return logOutput(out, annots)
}

func logOutput(out io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(b))

	return err
}

func main() {
	var cli CLI

	options := []kong.Option{
		kong.Name("pdfannotate"),
		kong.Description("Find text in a PDF and mark every occurrence with a highlight and a comment."),
		kong.UsageOnError(),
	}

	if path := configPath(os.Args[1:]); path != "" {
		opt, err := loadConfig(path)
		endIfErr(err)
		options = append(options, opt)
	}

	ctx := kong.Parse(&cli, options...)

	logger := logging.Setup(logging.Config{
		Level:  cli.LogLevel,
		Format: cli.LogFormat,
	})

	endIfErr(ctx.Run(&cli, logger, &output{os.Stdout}))
}
