// Package docs embeds the pfv documentation.
//
// readme.md is the entry point: its bullet list "* <topic>: <summary>" is the
// index of the topics, one markdown file per topic.
package docs

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

//go:embed *.md
var files embed.FS

const readme = "readme"

// Topic is an entry of the documentation index.
type Topic struct {
	Name    string
	Summary string
}

var indexEntry = regexp.MustCompile(`^\*\s+([^:\s]+):\s*(.*)$`)

// Index returns the topics listed in readme.md, in their order.
func Index() ([]Topic, error) {
	content, err := files.ReadFile(readme + ".md")
	if err != nil {
		return nil, err
	}
	var index []Topic
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		m := indexEntry.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		index = append(index, Topic{Name: m[1], Summary: strings.TrimSpace(m[2])})
	}
	return index, scanner.Err()
}

// Names returns the sorted names of the indexed topics.
func Names() ([]string, error) {
	index, err := Index()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(index))
	for _, t := range index {
		names = append(names, t.Name)
	}
	slices.Sort(names)
	return names, nil
}

// Get returns the content of the topics, one after the other. "*" stands for
// every indexed topic in index order, no topic for the readme. A topic is
// written once even when asked for twice.
func Get(topics ...string) (string, error) {
	if len(topics) == 0 {
		topics = []string{readme}
	}
	var names []string
	for _, topic := range topics {
		if topic != "*" {
			names = append(names, topic)
			continue
		}
		index, err := Index()
		if err != nil {
			return "", err
		}
		for _, t := range index {
			names = append(names, t.Name)
		}
	}

	var b strings.Builder
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		content, err := files.ReadFile(name + ".md")
		if err != nil {
			return "", fmt.Errorf("topic %q not found: %w", name, err)
		}
		b.Write(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
