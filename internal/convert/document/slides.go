package document

import "strings"

// bodyFlushLimit is how many accumulated body paragraphs force a flush
// into a slide.
const bodyFlushLimit = 5

// continuationTitle names slides created when body text overflows with
// no heading-based slide open.
const continuationTitle = "Continuation"

// Slide is one content slide of a generated presentation.
type Slide struct {
	Title string
	Body  []string
}

// Deck is the generated presentation: a title slide plus content
// slides.
type Deck struct {
	Title    string
	Subtitle string
	Slides   []Slide
}

// buildDeck splits a document's paragraphs into presentation slides.
//
// Paragraph 1 becomes the presentation title and paragraph 2 the
// subtitle. For the rest: a heading-styled paragraph flushes any
// buffered body text into the currently open slide and opens a new
// slide titled with the heading; other non-empty paragraphs accumulate
// in a buffer which flushes into the open slide once it reaches
// bodyFlushLimit, closing that slide. A flush with no open slide
// creates a Continuation slide. Remaining buffered text is flushed at
// end of document. An empty document yields a deck with no content
// slides.
func buildDeck(paragraphs []Paragraph) Deck {
	var deck Deck
	if len(paragraphs) > 0 {
		deck.Title = paragraphs[0].Text
	}
	if len(paragraphs) > 1 {
		deck.Subtitle = paragraphs[1].Text
	}
	if len(paragraphs) <= 2 {
		return deck
	}

	var buffer []string
	open := -1 // index into deck.Slides, -1 when no slide is open

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if open < 0 {
			deck.Slides = append(deck.Slides, Slide{Title: continuationTitle})
			open = len(deck.Slides) - 1
		}
		deck.Slides[open].Body = append(deck.Slides[open].Body, buffer...)
		buffer = nil
	}

	for _, p := range paragraphs[2:] {
		if strings.HasPrefix(p.Style, "Heading") {
			flush()
			deck.Slides = append(deck.Slides, Slide{Title: p.Text})
			open = len(deck.Slides) - 1
			continue
		}

		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		buffer = append(buffer, p.Text)
		if len(buffer) >= bodyFlushLimit {
			flush()
			open = -1
		}
	}

	flush()
	return deck
}
