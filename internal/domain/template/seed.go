package template

import (
	"context"

	"github.com/lib/pq"
)

// SeedData is the built-in template catalog. Keyed by slug so re-seeding
// updates existing rows instead of duplicating them.
var SeedData = []PhotoTemplate{
	{
		Slug:        "ifood-padrao",
		Name:        "iFood Padrao",
		Description: "Fundo claro e neutro no estilo aprovado pelos marketplaces de delivery.",
		Category:    "delivery",
		AspectRatio: "1:1",
		Prompt: "Clean bright background, soft even lighting, dish centered and " +
			"filling most of the frame, marketplace catalog style, no props or hands.",
		PlatformSuggestions: pq.StringArray{"ifood", "rappi"},
		IsActive:            true,
	},
	{
		Slug:        "gourmet-escuro",
		Name:        "Gourmet Escuro",
		Description: "Fundo escuro dramatico com iluminacao lateral para pratos sofisticados.",
		Category:    "gourmet",
		AspectRatio: "4:5",
		Prompt: "Dark moody background, dramatic side lighting, rich shadows, " +
			"fine dining plating, shallow depth of field, editorial restaurant style.",
		PlatformSuggestions: pq.StringArray{"instagram", "site"},
		IsActive:            true,
	},
	{
		Slug:        "flat-lay-cardapio",
		Name:        "Flat Lay Cardapio",
		Description: "Vista de cima em superficie neutra, ideal para fotos de cardapio.",
		Category:    "cardapio",
		AspectRatio: "4:3",
		Prompt: "Top-down flat lay on a neutral stone or wood surface, even " +
			"diffused light, minimal garnish props, menu photography style.",
		PlatformSuggestions: pq.StringArray{"cardapio", "site"},
		IsActive:            true,
	},
	{
		Slug:        "stories-vibrante",
		Name:        "Stories Vibrante",
		Description: "Cores vivas e composicao vertical pensada para stories.",
		Category:    "social",
		AspectRatio: "9:16",
		Prompt: "Vibrant saturated colors, bold contrast, dynamic composition with " +
			"energy, vertical-friendly framing, social media story aesthetic.",
		PlatformSuggestions: pq.StringArray{"instagram", "tiktok"},
		IsActive:            true,
	},
	{
		Slug:        "minimalista-clean",
		Name:        "Minimalista Clean",
		Description: "Composicao minimalista com muito espaco negativo.",
		Category:    "minimalista",
		AspectRatio: "1:1",
		Prompt: "Minimalist composition, abundant white negative space, single " +
			"dish as hero, soft shadow, scandinavian clean aesthetic.",
		PlatformSuggestions: pq.StringArray{"site", "instagram"},
		IsActive:            true,
	},
	{
		Slug:        "rustico-artesanal",
		Name:        "Rustico Artesanal",
		Description: "Madeira, linho e luz natural para comida artesanal.",
		Category:    "rustico",
		AspectRatio: "4:5",
		Prompt: "Rustic wooden table, linen napkin, warm natural window light, " +
			"artisanal homemade feel, scattered raw ingredients as props.",
		PlatformSuggestions: pq.StringArray{"instagram", "cardapio"},
		IsActive:            true,
	},
	{
		Slug:        "fast-food-apetitoso",
		Name:        "Fast Food Apetitoso",
		Description: "Estilo comercial de fast food com close apetitoso.",
		Category:    "fast-food",
		AspectRatio: "4:5",
		Prompt: "Commercial fast food advertising style, extreme appetizing " +
			"close-up, melted cheese pull, steam, bold warm lighting, punchy colors.",
		PlatformSuggestions: pq.StringArray{"ifood", "instagram"},
		IsActive:            true,
	},
	{
		Slug:        "sobremesa-elegante",
		Name:        "Sobremesa Elegante",
		Description: "Apresentacao refinada para doces e sobremesas.",
		Category:    "sobremesa",
		AspectRatio: "4:5",
		Prompt: "Elegant dessert presentation, patisserie styling, delicate " +
			"garnish, soft pastel background, luxurious refined mood.",
		PlatformSuggestions: pq.StringArray{"instagram", "site"},
		IsActive:            true,
	},
	{
		Slug:        "bebidas-refrescantes",
		Name:        "Bebidas Refrescantes",
		Description: "Condensacao, gelo e frescor para bebidas geladas.",
		Category:    "bebidas",
		AspectRatio: "4:5",
		Prompt: "Ice cold beverage with condensation droplets, fresh garnish, " +
			"backlit glow through the glass, refreshing summer mood.",
		PlatformSuggestions: pq.StringArray{"instagram", "ifood"},
		IsActive:            true,
	},
	{
		Slug:        "saudavel-fitness",
		Name:        "Saudavel Fitness",
		Description: "Visual leve e natural para pratos saudaveis.",
		Category:    "saudavel",
		AspectRatio: "1:1",
		Prompt: "Fresh healthy bowl styling, bright natural daylight, green " +
			"accents, light airy mood, clean eating lifestyle aesthetic.",
		PlatformSuggestions: pq.StringArray{"instagram", "site"},
		IsActive:            true,
	},
}

// Seed upserts the built-in catalog.
func Seed(ctx context.Context, repo Repository) error {
	for i := range SeedData {
		t := SeedData[i]
		if err := repo.Upsert(ctx, &t); err != nil {
			return err
		}
	}
	return nil
}
