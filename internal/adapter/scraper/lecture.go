package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgivc/coursefetch/internal/entity"
)

const (
	downloadNameAttr = "data-x-origin-download-name"
	videoIcon        = "#icon__Video"
)

// LectureMeta fetches a lecture page. It satisfies entity.MetaFetcher.
func (s *Scraper) LectureMeta(ctx context.Context, lectureURL string) (*entity.LectureMeta, error) {
	doc, err := s.document(ctx, lectureURL)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch lecture page: %w", err)
	}

	return s.parseLecture(doc)
}

func (s *Scraper) parseLecture(doc *goquery.Document) (*entity.LectureMeta, error) {
	heading, err := lectureNameSelectors.findOne(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("cannot find lecture name: %w", err)
	}

	meta := &entity.LectureMeta{
		Name:          text(heading),
		Type:          lectureType(doc.Selection),
		Downloadables: s.downloadables(doc.Selection),
	}

	if meta.Type == entity.LectureTypeText {
		content, err := textContent(doc.Selection)
		if err != nil {
			return nil, fmt.Errorf("cannot get content of %q: %w", meta.Name, err)
		}

		meta.Content = content
	}

	return meta, nil
}

// lectureType looks at the heading icon. Lectures without a video icon are text.
func lectureType(doc *goquery.Selection) entity.LectureType {
	icon, err := lectureIconSelectors.findOne(doc)
	if err != nil {
		return entity.LectureTypeText
	}

	// the html parser moves the xlink prefix of svg attributes into the namespace
	href, ok := icon.Attr("href")
	if !ok {
		href, _ = icon.Attr("xlink:href")
	}

	if href == videoIcon {
		return entity.LectureTypeVideo
	}

	return entity.LectureTypeText
}

// downloadables lists download links in page order. Links sharing a display
// name collapse into one entry holding the last URL, so every unnamed link
// becomes a single anonymous downloadable.
func (s *Scraper) downloadables(doc *goquery.Selection) []entity.Downloadable {
	links, err := downloadSelectors.find(doc)
	if err != nil {
		return nil
	}

	var (
		result []entity.Downloadable
		seen   = make(map[string]int)
	)

	links.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		name, _ := a.Attr(downloadNameAttr)
		d := entity.Downloadable{Name: name, URL: s.resolve(href)}

		if i, ok := seen[name]; ok {
			result[i] = d

			return
		}

		seen[name] = len(result)
		result = append(result, d)
	})

	return result
}

// textContent is the main container with the completion controls and attachment
// widgets removed and the completion data attributes cleared.
func textContent(doc *goquery.Selection) (string, error) {
	container, err := mainContainerSelectors.findOne(doc)
	if err != nil {
		return "", err
	}

	if meta, err := completionMetaSelectors.findOne(container); err == nil {
		for _, node := range meta.Nodes {
			node.Attr = nil
		}
	}

	for _, selector := range decomposableSelectors {
		container.Find(selector).First().Remove()
	}

	html, err := goquery.OuterHtml(container)
	if err != nil {
		return "", fmt.Errorf("cannot render content: %w", err)
	}

	return html, nil
}
