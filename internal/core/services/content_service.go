package services

import (
	"context"
	"errors"
	"fmt"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

// AboutUsSlug identifies the "about us" page document
const AboutUsSlug = "about-us"

// Content errors
var (
	ErrContentNotFound = errors.New("page content not found")
	ErrSectionIndex    = errors.New("section index out of range")
)

// ContentService manages admin-editable page documents
type ContentService struct {
	contentRepo repositories.PageContentRepository
	auditor     Auditor
}

// NewContentService creates a new content service
func NewContentService(contentRepo repositories.PageContentRepository, auditor Auditor) *ContentService {
	return &ContentService{contentRepo: contentRepo, auditor: auditor}
}

// Get returns the document of a page
func (s *ContentService) Get(ctx context.Context, slug string) (*models.PageContent, error) {
	content, err := s.contentRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return content, nil
}

// Replace validates and stores a whole document
func (s *ContentService) Replace(ctx context.Context, slug string, doc *domain.PageDocument, actor string) (*models.PageContent, error) {
	if doc.Sections == nil {
		doc.Sections = []domain.Section{}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.save(ctx, slug, *doc, actor, "Replaced page content")
}

// AddSection appends a section to an existing document
func (s *ContentService) AddSection(ctx context.Context, slug string, section *domain.Section, actor string) (*models.PageContent, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	content, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	doc := content.Document
	doc.Sections = append(doc.Sections, *section)
	return s.save(ctx, slug, doc, actor, fmt.Sprintf("Added section %q", section.Title))
}

// UpdateSection replaces the section at index
func (s *ContentService) UpdateSection(ctx context.Context, slug string, index int, section *domain.Section, actor string) (*models.PageContent, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	content, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	doc := content.Document
	if index < 0 || index >= len(doc.Sections) {
		return nil, ErrSectionIndex
	}
	doc.Sections[index] = *section
	return s.save(ctx, slug, doc, actor, fmt.Sprintf("Updated section %d", index))
}

// DeleteSection removes the section at index
func (s *ContentService) DeleteSection(ctx context.Context, slug string, index int, actor string) (*models.PageContent, error) {
	content, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	doc := content.Document
	if index < 0 || index >= len(doc.Sections) {
		return nil, ErrSectionIndex
	}
	doc.Sections = append(doc.Sections[:index:index], doc.Sections[index+1:]...)
	return s.save(ctx, slug, doc, actor, fmt.Sprintf("Deleted section %d", index))
}

func (s *ContentService) save(ctx context.Context, slug string, doc domain.PageDocument, actor, action string) (*models.PageContent, error) {
	content := &models.PageContent{
		Slug:      slug,
		Document:  doc,
		UpdatedBy: actorOrSystem(actor),
	}
	if err := s.contentRepo.Save(ctx, content); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("%s (%s)", action, slug), actor, nil)
	return s.Get(ctx, slug)
}
