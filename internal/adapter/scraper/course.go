package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgivc/coursefetch/internal/entity"
)

// Course is a course page. The page is fetched once, on first use.
type Course struct {
	scraper *Scraper
	url     string
	page    string

	mu  sync.Mutex
	doc *goquery.Document
}

func (c *Course) URL() string {
	return c.url
}

func (c *Course) document(ctx context.Context) (*goquery.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc != nil {
		return c.doc, nil
	}

	doc, err := c.scraper.document(ctx, c.page)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch course page: %w", err)
	}

	c.doc = doc

	return doc, nil
}

func (c *Course) Name(ctx context.Context) (string, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return "", err
	}

	name, err := courseNameSelectors.findOne(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("cannot find course name: %w", err)
	}

	return text(name), nil
}

// Sections returns every section with its lectures in site order. Section names
// are numbered from 1: "1- Getting Started".
func (c *Course) Sections(ctx context.Context) (*entity.SectionMap, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return nil, err
	}

	containers, err := sectionContainerSelectors.find(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("cannot find sections: %w", err)
	}

	sections := &entity.SectionMap{}

	for i := range containers.Nodes {
		container := containers.Eq(i)

		title, err := sectionNameSelectors.findOne(container)
		if err != nil {
			return nil, fmt.Errorf("cannot find name of section %d: %w", i+1, err)
		}

		anchors, err := lectureAnchorSelectors.find(container)
		if err != nil {
			return nil, fmt.Errorf("cannot find lectures of section %d: %w", i+1, err)
		}

		section := &entity.Section{Name: fmt.Sprintf("%d- %s", i+1, text(title))}
		anchors.Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}

			section.Lectures = append(section.Lectures, entity.NewLectureRef(c.scraper.resolve(href), c.scraper.LectureMeta))
		})

		sections.Sections = append(sections.Sections, section)
	}

	c.scraper.log.Debug("Parsed course", slog.String("url", c.url), slog.Int("sections", sections.Len()))

	return sections, nil
}
