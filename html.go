// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// HtmlProcessorOptions builds the attributes of injected tags.
// filename is the output file, htmlFile the rewritten index.html.
type HtmlProcessorOptions struct {
	ScriptAttrBuilder func(filename string, htmlFile string) []html.Attribute
	CssAttrBuilder    func(filename string, htmlFile string) []html.Attribute
}

func relativeTo(htmlFile, filename string) string {
	if rel, err := filepath.Rel(filepath.Dir(htmlFile), filename); err == nil && rel != "" {
		return filepath.ToSlash(rel)
	}
	return filename
}

func defaultScriptAttrs(filename, htmlFile string) []html.Attribute {
	return []html.Attribute{
		{Key: "crossorigin", Val: ""},
		{Key: "type", Val: "module"},
		{Key: "src", Val: relativeTo(htmlFile, filename)},
	}
}

func defaultCssAttrs(filename, htmlFile string) []html.Attribute {
	return []html.Attribute{
		{Key: "crossorigin", Val: ""},
		{Key: "rel", Val: "stylesheet"},
		{Key: "href", Val: relativeTo(htmlFile, filename)},
	}
}

// NewHtmlProcessor returns an IndexHtmlProcessor that links the JS and CSS
// outputs of the entry points into <head> and removes RemoveTagXPaths nodes.
func NewHtmlProcessor(htmlProcessorOptions HtmlProcessorOptions) IndexHtmlProcessor {
	scriptAttrs := htmlProcessorOptions.ScriptAttrBuilder
	if scriptAttrs == nil {
		scriptAttrs = defaultScriptAttrs
	}
	cssAttrs := htmlProcessorOptions.CssAttrBuilder
	if cssAttrs == nil {
		cssAttrs = defaultCssAttrs
	}

	return func(doc *html.Node, result *api.BuildResult, opts *Options, build *api.PluginBuild) error {
		htmlFile, _ := filepath.Abs(opts.indexHtmlOptions.OutFile)

		headNode := htmlquery.FindOne(doc, "//head")
		if headNode == nil {
			return errors.New("index html has no <head> element")
		}

		for _, outputFile := range result.OutputFiles {
			outPath, _ := filepath.Abs(outputFile.Path)
			if !fromEntryPoint(outPath, build.InitialOptions.EntryPoints) {
				continue
			}

			var node *html.Node
			switch filepath.Ext(outPath) {
			case ".js":
				node = &html.Node{Type: html.ElementNode, Data: "script", Attr: scriptAttrs(outPath, htmlFile)}
			case ".css":
				node = &html.Node{Type: html.ElementNode, Data: "link", Attr: cssAttrs(outPath, htmlFile)}
			default:
				continue
			}
			headNode.AppendChild(node)
			headNode.AppendChild(&html.Node{Type: html.TextNode, Data: "\n"})
		}

		for _, xpath := range opts.indexHtmlOptions.RemoveTagXPaths {
			for _, node := range htmlquery.Find(doc, xpath) {
				if node.Parent != nil {
					node.Parent.RemoveChild(node)
				}
			}
		}

		return nil
	}
}

// fromEntryPoint reports whether an output file was generated for one of the
// entry points, judged by its base name prefix.
func fromEntryPoint(outPath string, entryPoints []string) bool {
	base := filepath.Base(outPath)
	for _, entryPoint := range entryPoints {
		entry := filepath.Base(entryPoint)
		if strings.HasPrefix(base, strings.TrimSuffix(entry, filepath.Ext(entry))) {
			return true
		}
	}
	return false
}

// setupHtmlHandler rewrites index.html once the build has written its outputs.
func setupHtmlHandler(opts *Options, build *api.PluginBuild) {
	build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
		htmlOpts := opts.indexHtmlOptions
		if htmlOpts.SourceFile == "" || !build.InitialOptions.Write || len(result.Errors) > 0 {
			return api.OnEndResult{}, nil
		}
		if htmlOpts.OutFile == "" {
			return api.OnEndResult{}, fmt.Errorf("index html output file is not set")
		}

		processors := htmlOpts.IndexHtmlProcessors
		if len(processors) == 0 {
			processors = []IndexHtmlProcessor{NewHtmlProcessor(HtmlProcessorOptions{})}
		}

		if err := rewriteIndexHtml(opts, processors, result, build); err != nil {
			opts.logger.Error("Failed to rewrite index html", "error", err, "file", htmlOpts.SourceFile)
			return api.OnEndResult{}, err
		}
		return api.OnEndResult{}, nil
	})
}

func rewriteIndexHtml(opts *Options, processors []IndexHtmlProcessor, result *api.BuildResult, build *api.PluginBuild) error {
	src, err := opts.fs.Open(opts.indexHtmlOptions.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	utf8Reader, err := detectAndConvertToUTF8(src)
	if err != nil {
		return fmt.Errorf("failed to convert source file to UTF-8: %w", err)
	}

	doc, err := htmlquery.Parse(utf8Reader)
	if err != nil {
		return fmt.Errorf("failed to parse html: %w", err)
	}

	for _, processor := range processors {
		if err := processor(doc, result, opts, build); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return err
	}

	if err := opts.fs.MkdirAll(filepath.Dir(opts.indexHtmlOptions.OutFile), 0755); err != nil {
		return err
	}
	return afero.WriteFile(opts.fs, opts.indexHtmlOptions.OutFile, buf.Bytes(), 0644)
}

// detectAndConvertToUTF8 decodes r using the charset sniffed from its content.
func detectAndConvertToUTF8(r io.Reader) (io.Reader, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	encoding, _, _ := charset.DetermineEncoding(b, "text/html")
	return transform.NewReader(bytes.NewReader(b), encoding.NewDecoder()), nil
}
