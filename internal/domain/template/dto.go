package template

// ListItemResponse is the public catalog view. The internal prompt is
// deliberately absent here.
type ListItemResponse struct {
	ID                  string   `json:"id"`
	Slug                string   `json:"slug"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Category            string   `json:"category"`
	AspectRatio         string   `json:"aspectRatio"`
	PreviewURL          string   `json:"previewUrl"`
	PlatformSuggestions []string `json:"platformSuggestions"`
}

// DetailResponse is the by-id view, used by the generation flow, and
// includes the internal prompt.
type DetailResponse struct {
	ListItemResponse
	InternalPrompt string `json:"internalPrompt"`
}

func ToListItemResponse(t PhotoTemplate) ListItemResponse {
	return ListItemResponse{
		ID:                  t.ID.String(),
		Slug:                t.Slug,
		Name:                t.Name,
		Description:         t.Description,
		Category:            t.Category,
		AspectRatio:         t.AspectRatio,
		PreviewURL:          t.PreviewURL,
		PlatformSuggestions: t.PlatformSuggestions,
	}
}

func ToListItemResponses(templates []PhotoTemplate) []ListItemResponse {
	out := make([]ListItemResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, ToListItemResponse(t))
	}
	return out
}

func ToDetailResponse(t PhotoTemplate) DetailResponse {
	return DetailResponse{
		ListItemResponse: ToListItemResponse(t),
		InternalPrompt:   t.Prompt,
	}
}
