// Package blocks models document content as a typed sequence of content
// blocks. Each block type carries its own data shape; unknown types are
// preserved verbatim so that documents round-trip through the engine
// without loss.
package blocks

import (
	"encoding/json"
	"fmt"
)

// Known block types.
const (
	TypeParagraph       = "paragraph"
	TypeHeading         = "heading"
	TypeQuote           = "quote"
	TypeList            = "list"
	TypeChecklist       = "checklist"
	TypeProsCons        = "proscons"
	TypeImage           = "image"
	TypeGallery         = "gallery"
	TypeVideo           = "video"
	TypeEmbed           = "embed"
	TypeTable           = "table"
	TypeStats           = "stats"
	TypeAccordion       = "accordion"
	TypeButton          = "button"
	TypeTableOfContents = "tableOfContents"
	TypeCode            = "code"
	TypeCallout         = "callout"
	TypeDivider         = "divider"
)

// Block is one content block. Data holds the variant matching Type; blocks
// of unrecognised type carry an Opaque payload that marshals back unchanged.
type Block struct {
	ID   string
	Type string
	Data BlockData
}

// BlockData is implemented by every block payload variant.
type BlockData interface {
	blockData()
}

// Paragraph is free text that may contain inline anchor markup.
type Paragraph struct {
	Text string `json:"text"`
}

// Heading is a section heading.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level,omitempty"`
}

// Quote is a pull quote with optional attribution.
type Quote struct {
	Text    string `json:"text"`
	Caption string `json:"caption,omitempty"`
}

// List is an ordered or unordered list of free-text items.
type List struct {
	Style string   `json:"style,omitempty"`
	Items []string `json:"items"`
}

// ChecklistItem is one entry of a Checklist.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked,omitempty"`
}

// Checklist is a list with per-item completion state.
type Checklist struct {
	Items []ChecklistItem `json:"items"`
}

// ProsCons holds paired pro/con bullet lists.
type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// Image is a single image reference.
type Image struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Gallery is a set of images.
type Gallery struct {
	Images []Image `json:"images"`
}

// Video is an embedded video reference.
type Video struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Embed is third-party embedded content.
type Embed struct {
	Service string `json:"service,omitempty"`
	URL     string `json:"url"`
}

// Table is tabular data.
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// Stat is one labelled figure in a Stats block.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Stats is a row of highlighted figures.
type Stats struct {
	Items []Stat `json:"items"`
}

// AccordionItem is one expandable question/answer pair. Answers are free
// text and may contain inline anchor markup.
type AccordionItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Accordion is a list of expandable items (typically an FAQ).
type Accordion struct {
	Items []AccordionItem `json:"items"`
}

// Button is a call-to-action with a label and target URL.
type Button struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	NewTab bool   `json:"newTab,omitempty"`
}

// TableOfContents is a rendering directive with no data of its own.
type TableOfContents struct{}

// Code is a source listing.
type Code struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// Callout is highlighted free text that may contain inline anchor markup.
type Callout struct {
	Text    string `json:"text"`
	Variant string `json:"variant,omitempty"`
}

// Divider is a horizontal rule with no data.
type Divider struct{}

// Opaque preserves the payload of an unrecognised block type. It is never
// scanned for anchors and round-trips byte-for-byte.
type Opaque struct {
	Raw json.RawMessage
}

func (Paragraph) blockData()       {}
func (Heading) blockData()         {}
func (Quote) blockData()           {}
func (List) blockData()            {}
func (Checklist) blockData()       {}
func (ProsCons) blockData()        {}
func (Image) blockData()           {}
func (Gallery) blockData()         {}
func (Video) blockData()           {}
func (Embed) blockData()           {}
func (Table) blockData()           {}
func (Stats) blockData()           {}
func (Accordion) blockData()       {}
func (Button) blockData()          {}
func (TableOfContents) blockData() {}
func (Code) blockData()            {}
func (Callout) blockData()         {}
func (Divider) blockData()         {}
func (Opaque) blockData()          {}

type envelope struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes the {id, type, data} envelope and the variant
// payload matching the declared type.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("blocks: decode envelope: %w", err)
	}
	data, err := decodeData(env.Type, env.Data)
	if err != nil {
		return err
	}
	b.ID = env.ID
	b.Type = env.Type
	b.Data = data
	return nil
}

// MarshalJSON re-emits the envelope. Opaque payloads are written verbatim.
func (b Block) MarshalJSON() ([]byte, error) {
	env := envelope{ID: b.ID, Type: b.Type}
	switch d := b.Data.(type) {
	case nil:
		// No payload; emit without data.
	case *Opaque:
		env.Data = d.Raw
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("blocks: encode %s data: %w", b.Type, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func decodeData(blockType string, raw json.RawMessage) (BlockData, error) {
	var target BlockData
	switch blockType {
	case TypeParagraph:
		target = &Paragraph{}
	case TypeHeading:
		target = &Heading{}
	case TypeQuote:
		target = &Quote{}
	case TypeList:
		target = &List{}
	case TypeChecklist:
		target = &Checklist{}
	case TypeProsCons:
		target = &ProsCons{}
	case TypeImage:
		target = &Image{}
	case TypeGallery:
		target = &Gallery{}
	case TypeVideo:
		target = &Video{}
	case TypeEmbed:
		target = &Embed{}
	case TypeTable:
		target = &Table{}
	case TypeStats:
		target = &Stats{}
	case TypeAccordion:
		target = &Accordion{}
	case TypeButton:
		target = &Button{}
	case TypeTableOfContents:
		target = &TableOfContents{}
	case TypeCode:
		target = &Code{}
	case TypeCallout:
		target = &Callout{}
	case TypeDivider:
		target = &Divider{}
	default:
		return &Opaque{Raw: append(json.RawMessage(nil), raw...)}, nil
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("blocks: decode %s data: %w", blockType, err)
		}
	}
	return target, nil
}

// LinkableTexts returns pointers to every free-text field of the block that
// may carry inline anchor markup, in rendering order. Blocks without
// linkable text return nil. Button labels are excluded: a button is itself
// a link and cannot contain one.
func (b *Block) LinkableTexts() []*string {
	switch d := b.Data.(type) {
	case *Paragraph:
		return []*string{&d.Text}
	case *List:
		out := make([]*string, len(d.Items))
		for i := range d.Items {
			out[i] = &d.Items[i]
		}
		return out
	case *Callout:
		return []*string{&d.Text}
	case *Accordion:
		out := make([]*string, len(d.Items))
		for i := range d.Items {
			out[i] = &d.Items[i].Answer
		}
		return out
	default:
		return nil
	}
}
