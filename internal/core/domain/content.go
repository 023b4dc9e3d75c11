package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// SectionKind discriminates the page section union
type SectionKind string

const (
	SectionText  SectionKind = "text"
	SectionImage SectionKind = "image"
	SectionList  SectionKind = "list"
	SectionCards SectionKind = "cards"
)

// PageDocument is the admin-editable content of a public page (e.g. "about us")
type PageDocument struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Sections []Section `json:"sections"`
}

// Validate checks the document and every section
func (d *PageDocument) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: document title is required", ErrInvalidSection)
	}
	for i := range d.Sections {
		if err := d.Sections[i].Validate(); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

// SectionBody is implemented by every section kind
type SectionBody interface {
	Kind() SectionKind
	validate() error
}

// Section is one block of a page document. Body holds exactly one kind.
type Section struct {
	Title string
	Body  SectionBody
}

// TextSection is a block of paragraphs
type TextSection struct {
	Body string `json:"body"`
}

func (TextSection) Kind() SectionKind { return SectionText }

func (s TextSection) validate() error {
	if strings.TrimSpace(s.Body) == "" {
		return fmt.Errorf("%w: text section requires body", ErrInvalidSection)
	}
	return nil
}

// ImageSection is a single image with a caption
type ImageSection struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption,omitempty"`
}

func (ImageSection) Kind() SectionKind { return SectionImage }

func (s ImageSection) validate() error {
	if strings.TrimSpace(s.ImageURL) == "" {
		return fmt.Errorf("%w: image section requires image_url", ErrInvalidSection)
	}
	return nil
}

// ListSection is a bullet list
type ListSection struct {
	Items []string `json:"items"`
}

func (ListSection) Kind() SectionKind { return SectionList }

func (s ListSection) validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("%w: list section requires at least one item", ErrInvalidSection)
	}
	for _, item := range s.Items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("%w: list items cannot be empty", ErrInvalidSection)
		}
	}
	return nil
}

// Card is one entry of a cards section
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CardsSection is a grid of cards (team members, services, ...)
type CardsSection struct {
	Cards []Card `json:"cards"`
}

func (CardsSection) Kind() SectionKind { return SectionCards }

func (s CardsSection) validate() error {
	if len(s.Cards) == 0 {
		return fmt.Errorf("%w: cards section requires at least one card", ErrInvalidSection)
	}
	for _, c := range s.Cards {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("%w: every card requires a title", ErrInvalidSection)
		}
	}
	return nil
}

// Validate checks the section title and body
func (s *Section) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: section title is required", ErrInvalidSection)
	}
	if s.Body == nil {
		return fmt.Errorf("%w: section body is required", ErrInvalidSection)
	}
	return s.Body.validate()
}

// sectionEnvelope is the wire shape: {"type": "...", "title": "...", "data": {...}}
type sectionEnvelope struct {
	Type  SectionKind     `json:"type"`
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

// MarshalJSON writes the section as a tagged envelope
func (s Section) MarshalJSON() ([]byte, error) {
	if s.Body == nil {
		return nil, fmt.Errorf("%w: section body is required", ErrInvalidSection)
	}
	data, err := sonic.Marshal(s.Body)
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(sectionEnvelope{
		Type:  s.Body.Kind(),
		Title: s.Title,
		Data:  data,
	})
}

// UnmarshalJSON reads a tagged envelope into the matching section kind
func (s *Section) UnmarshalJSON(raw []byte) error {
	var env sectionEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}

	var body SectionBody
	switch env.Type {
	case SectionText:
		var b TextSection
		if err := decodeSectionData(env.Data, &b); err != nil {
			return err
		}
		body = b
	case SectionImage:
		var b ImageSection
		if err := decodeSectionData(env.Data, &b); err != nil {
			return err
		}
		body = b
	case SectionList:
		var b ListSection
		if err := decodeSectionData(env.Data, &b); err != nil {
			return err
		}
		body = b
	case SectionCards:
		var b CardsSection
		if err := decodeSectionData(env.Data, &b); err != nil {
			return err
		}
		body = b
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, env.Type)
	}

	s.Title = env.Title
	s.Body = body
	return nil
}

func decodeSectionData(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	return nil
}
