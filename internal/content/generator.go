// ABOUTME: Marketing content generation for stores and products on top of llm.Fallback
// ABOUTME: Holds the French prompt templates and the section ordering rules

package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easyshop/easyshop-api/internal/llm"
)

// DefaultSystem is the system instruction for all marketing prompts
const DefaultSystem = "Vous êtes un expert en e-commerce qui crée du contenu marketing professionnel en français."

// DefaultAudience is used when a brief names no target audience
const DefaultAudience = "clients africains"

const (
	probePrompt = "Dis 'Bonjour depuis GPT-5!' et rien d'autre."
	probeSystem = "Tu es un assistant test."
)

// Section names, in generation order
const (
	SectionHero     = "hero"
	SectionFeatures = "features"
	SectionAbout    = "about"
	SectionCTA      = "cta"
)

// SectionOrder is the fixed order sections are generated in
var SectionOrder = []string{SectionHero, SectionFeatures, SectionAbout, SectionCTA}

// ErrInvalidBrief is returned for briefs missing required fields
var ErrInvalidBrief = errors.New("invalid brief")

// TextGenerator produces text for a request; llm.Fallback implements it
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (llm.Result, error)
}

// Generator builds prompts, calls the models, and unwraps their output
type Generator struct {
	text   TextGenerator
	logger *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(text TextGenerator) *Generator {
	return &Generator{
		text:   text,
		logger: slog.Default().With("component", "content"),
	}
}

// StoreBrief describes the store to write landing content for
type StoreBrief struct {
	BusinessType   string   `json:"business_type"`
	BrandName      string   `json:"brand_name"`
	ProductURL     string   `json:"product_url,omitempty"`
	TargetAudience string   `json:"target_audience"`
	Sections       []string `json:"sections"`
}

// ApplyDefaults fills the audience and the section list when absent
func (b *StoreBrief) ApplyDefaults() {
	if strings.TrimSpace(b.TargetAudience) == "" {
		b.TargetAudience = DefaultAudience
	}
	if b.Sections == nil {
		b.Sections = append([]string(nil), SectionOrder...)
	}
}

// Validate checks the required fields
func (b StoreBrief) Validate() error {
	if strings.TrimSpace(b.BusinessType) == "" {
		return fmt.Errorf("%w: business_type is required", ErrInvalidBrief)
	}
	if strings.TrimSpace(b.BrandName) == "" {
		return fmt.Errorf("%w: brand_name is required", ErrInvalidBrief)
	}
	return nil
}

// ProductBrief describes the product to write copy for
type ProductBrief struct {
	ProductName string   `json:"product_name"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
}

// Validate checks the required fields
func (b ProductBrief) Validate() error {
	if strings.TrimSpace(b.ProductName) == "" {
		return fmt.Errorf("%w: product_name is required", ErrInvalidBrief)
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidBrief)
	}
	return nil
}

// StoreContent is the generated content keyed by section name
type StoreContent struct {
	Sections map[string]Unwrapped
	// Models lists the distinct model names that answered, in order of first use
	Models []string
}

// ModelUsed joins Models for display
func (c *StoreContent) ModelUsed() string {
	return strings.Join(c.Models, ",")
}

// StoreContent generates every requested section in SectionOrder.
// Unknown section names are ignored. The first failing section fails the call.
func (g *Generator) StoreContent(ctx context.Context, brief StoreBrief) (*StoreContent, error) {
	brief.ApplyDefaults()
	if err := brief.Validate(); err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(brief.Sections))
	for _, s := range brief.Sections {
		requested[s] = true
	}

	out := &StoreContent{Sections: map[string]Unwrapped{}, Models: []string{}}
	for _, section := range SectionOrder {
		if !requested[section] {
			continue
		}
		res, err := g.text.Generate(ctx, llm.Request{
			SessionID: llm.NewSessionID(section),
			System:    DefaultSystem,
			Prompt:    sectionPrompt(section, brief),
		})
		if err != nil {
			return nil, fmt.Errorf("generating %s section: %w", section, err)
		}

		out.Sections[section] = Unwrap(res.Text)
		out.addModel(res.Model.Name)
		g.logger.Debug("section generated", "section", section, "model", res.Model.String(), "attempts", res.Attempts)
	}
	return out, nil
}

func (c *StoreContent) addModel(name string) {
	for _, m := range c.Models {
		if m == name {
			return
		}
	}
	c.Models = append(c.Models, name)
}

// ProductDescription generates SEO copy for a product. When the answer carries a
// markdown long_description, an HTML rendering is added as long_description_html.
func (g *Generator) ProductDescription(ctx context.Context, brief ProductBrief) (Unwrapped, error) {
	if err := brief.Validate(); err != nil {
		return Unwrapped{}, err
	}

	res, err := g.text.Generate(ctx, llm.Request{
		SessionID: llm.NewSessionID("product-description"),
		System:    DefaultSystem,
		Prompt:    productPrompt(brief),
	})
	if err != nil {
		return Unwrapped{}, fmt.Errorf("generating product description: %w", err)
	}

	desc := Unwrap(res.Text)
	if obj, ok := desc.Object(); ok {
		if long, ok := obj["long_description"].(string); ok {
			html, err := RenderMarkdown(long)
			if err != nil {
				g.logger.Warn("failed to render long description", "error", err)
			} else {
				obj["long_description_html"] = html
			}
		}
	}
	return desc, nil
}

// Probe sends a fixed greeting to check that the models answer
func (g *Generator) Probe(ctx context.Context) (llm.Result, error) {
	return g.text.Generate(ctx, llm.Request{
		SessionID: llm.NewSessionID("test"),
		System:    probeSystem,
		Prompt:    probePrompt,
	})
}

func sectionPrompt(section string, b StoreBrief) string {
	switch section {
	case SectionHero:
		return fmt.Sprintf(heroPrompt, b.BusinessType, b.BrandName, b.TargetAudience)
	case SectionFeatures:
		return fmt.Sprintf(featuresPrompt, b.BusinessType, b.BrandName)
	case SectionAbout:
		return fmt.Sprintf(aboutPrompt, b.BrandName, b.BusinessType)
	case SectionCTA:
		return fmt.Sprintf(ctaPrompt, b.BrandName)
	}
	return ""
}

func productPrompt(b ProductBrief) string {
	lines := make([]string, 0, len(b.Features))
	for _, f := range b.Features {
		lines = append(lines, "- "+f)
	}
	return fmt.Sprintf(productDescriptionPrompt, b.ProductName, b.Category, strings.Join(lines, "\n"))
}

const heroPrompt = `
Crée un contenu de section Hero pour une boutique e-commerce %s nommée "%s".
Public cible: %s

Réponds UNIQUEMENT avec un objet JSON structuré comme ceci:
{
  "heading": "Titre principal accrocheur (max 10 mots)",
  "subheading": "Sous-titre descriptif (max 20 mots)",
  "cta_primary": "Texte bouton principal",
  "cta_secondary": "Texte bouton secondaire"
}

Pas de texte supplémentaire, juste le JSON.
`

const featuresPrompt = `
Crée 4 fonctionnalités/avantages clés pour une boutique e-commerce %s en Afrique.
Nom de la marque: %s

Réponds UNIQUEMENT avec un objet JSON:
{
  "heading": "Titre de la section",
  "subheading": "Sous-titre",
  "features": [
    {
      "title": "Titre de la fonctionnalité",
      "description": "Description courte",
      "icon": "truck|shield|support|award"
    }
  ]
}
`

const aboutPrompt = `
Crée une section "À Propos" engageante pour %s, une entreprise %s en Afrique.

Réponds UNIQUEMENT avec un objet JSON:
{
  "heading": "Titre",
  "paragraphs": ["paragraphe 1", "paragraphe 2", "paragraphe 3"]
}
`

const ctaPrompt = `
Crée une section Call-to-Action finale pour %s.

Réponds UNIQUEMENT avec un objet JSON:
{
  "heading": "Titre motivant",
  "text": "Texte persuasif",
  "button_text": "Texte du bouton"
}
`

const productDescriptionPrompt = `
Crée une description de produit e-commerce professionnelle pour:

Nom: %s
Catégorie: %s
Caractéristiques:
%s

Réponds UNIQUEMENT avec un objet JSON:
{
  "title": "Titre produit optimisé SEO",
  "short_description": "Description courte accrocheuse (1-2 phrases)",
  "long_description": "Description détaillée (3-4 paragraphes)",
  "seo_keywords": ["mot-clé1", "mot-clé2", "mot-clé3"]
}
`
