package document

import "github.com/jacob1911/pencil-app/internal/geometry"

// NewSampleDocument returns a small demo trace: an L-shaped corridor across
// a 1200x800 plan, so the sandbox has something to show before the user
// uploads an image of their own.
func NewSampleDocument(imageID string) *TraceDocument {
	doc := NewEmptyDocument(imageID, 1200, 800)
	doc.Points = []geometry.Point{
		{X: 140, Y: 652},
		{X: 486, Y: 648},
		{X: 520, Y: 630},
		{X: 536, Y: 596},
		{X: 540, Y: 380},
		{X: 560, Y: 350},
		{X: 980, Y: 344},
	}
	return doc
}
