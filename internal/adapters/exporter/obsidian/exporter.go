// Package obsidian renders snapshots as Obsidian-flavoured Markdown notes.
package obsidian

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"gopkg.in/yaml.v3"

	"learnsnap/internal/domain"
)

type Exporter struct {
	md *converter.Converter
}

func New() *Exporter {
	return &Exporter{md: converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)}
}

func (e *Exporter) Format() string    { return "obsidian" }
func (e *Exporter) Extension() string { return "md" }

// Export writes front matter, a title heading, an info callout with the source URL, and the body.
func (e *Exporter) Export(s *domain.Snapshot) ([]byte, error) {
	fm, err := frontMatter(s)
	if err != nil {
		return nil, err
	}
	body, err := e.md.ConvertString(s.Content.HTML, converter.WithDomain(s.URL))
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	b.WriteString("> [!info] Original URL\n")
	fmt.Fprintf(&b, "> [%s](%s)\n\n", s.URL, s.URL)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	return bytes.TrimSpace(b.Bytes()), nil
}

func frontMatter(s *domain.Snapshot) ([]byte, error) {
	category := domain.DefaultCategory
	if len(s.Categories) > 0 && s.Categories[0] != "" {
		category = s.Categories[0]
	}
	tags := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, t := range s.Tags {
		tags.Content = append(tags.Content, quoted(t))
	}
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v *yaml.Node) {
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, v)
	}
	add("title", quoted(s.Title))
	add("url", quoted(s.URL))
	add("author", quoted(s.Metadata.Author))
	add("date", quoted(s.CapturedDate()))
	add("tags", tags)
	add("category", quoted(category))
	add("rating", quoted(strconv.Itoa(s.Rating)))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: v}
}
