package layout

// ContentRootID is the element id of the rendered report container.
const ContentRootID = "report-content"

// ProseClass marks the report body inside the content root, excluding the
// severity summary chrome above it.
const ProseClass = "prose"

// Tag is the element name of a located block.
type Tag string

// IsHeading reports whether the tag is h1 through h6.
func (t Tag) IsHeading() bool {
	return len(t) == 2 && t[0] == 'h' && t[1] >= '1' && t[1] <= '6'
}

var breakTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "table": true,
	"pre": true, "blockquote": true, "hr": true,
}

// BlockPosition is a structural block and its vertical extent relative to the
// top of the content root, in unscaled document pixels.
type BlockPosition struct {
	Tag          Tag
	OffsetTop    float64
	OffsetHeight float64
}

// FindContentRoot locates the box of the element with the given id.
func FindContentRoot(root *BlockBox, id string) *BlockBox {
	return FindBlock(root, func(b *BlockBox) bool {
		return b.Node != nil && b.Node.ID() == id
	})
}

// LocateBlocks lists every heading, paragraph, list, table, code block, quote
// and rule inside the prose region of content, in document order and at any
// depth. Nested blocks produce their own entries. Without a prose region the
// result is empty. The tree is not modified.
func LocateBlocks(content *BlockBox) []BlockPosition {
	blocks := []BlockPosition{}
	if content == nil {
		return blocks
	}
	prose := FindBlock(content, func(b *BlockBox) bool {
		return b.Node.HasClass(ProseClass)
	})
	if prose == nil {
		return blocks
	}

	for _, c := range prose.Children {
		Walk(c, func(b Box) bool {
			bb, ok := b.(*BlockBox)
			if !ok {
				return false
			}
			if tag := bb.Tag(); breakTags[tag] {
				blocks = append(blocks, BlockPosition{
					Tag:          Tag(tag),
					OffsetTop:    bb.Y - content.Y,
					OffsetHeight: bb.Height,
				})
			}
			return true
		})
	}
	return blocks
}
