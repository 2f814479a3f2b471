package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jgivc/coursefetch/internal/common"
)

// chain is a list of CSS selectors tried in order. The site changed its markup
// before; older layouts stay at the end.
type chain []string

var (
	courseNameSelectors = chain{
		"body section div.course-sidebar h2",
	}
	sectionContainerSelectors = chain{
		"div.course-sidebar div.row.lecture-sidebar div.course-section",
	}
	sectionNameSelectors = chain{
		"div.course-sidebar div.row.lecture-sidebar div.course-section div.section-title",
	}
	lectureAnchorSelectors = chain{
		"div.course-sidebar div.row.lecture-sidebar div.course-section a.item",
		"body section div.course-mainbar div.row div ul li a",
	}
	lectureNameSelectors = chain{
		"#lecture_heading",
	}
	lectureIconSelectors = chain{
		"#lecture_heading svg use",
	}
	downloadSelectors = chain{
		"a.download",
	}
	mainContainerSelectors = chain{
		"body section div.course-mainbar.lecture-content.full-width-content",
	}
	completionMetaSelectors = chain{
		"#lecture-completion-data",
	}
)

// removable elements of a text lecture; only the first match of each is removed
var decomposableSelectors = []string{
	"a.btn.complete.lecture-complete",
	"#empty_box",
	"div.attachment-data",
	"div.row attachment-pdf-embed",
}

// find returns the matches of the first selector in c that matches anything.
func (c chain) find(source *goquery.Selection) (*goquery.Selection, error) {
	for _, selector := range c {
		if found := source.Find(selector); found.Length() > 0 {
			return found, nil
		}
	}

	return nil, fmt.Errorf("%w: %s, the site might have been updated", common.ErrElementNotFound, strings.Join(c, " | "))
}

func (c chain) findOne(source *goquery.Selection) (*goquery.Selection, error) {
	found, err := c.find(source)
	if err != nil {
		return nil, err
	}

	return found.First(), nil
}

// text is the element text with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
