package notionsync

import (
	"encoding/json"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the insights database.
const (
	PropTitle       = "Title"
	PropType        = "Type"
	PropSeverity    = "Severity"
	PropDescription = "Description"
	PropCreated     = "Created"
	PropInsightID   = "Insight ID"
	PropMetadata    = "Metadata"
)

// maxRichText is Notion's per-block rich text content limit, in characters.
const maxRichText = 2000

// InsightToNotionProperties converts an insight to a page in the insights database.
func InsightToNotionProperties(in domain.Insight) notionapi.Properties {
	created := notionapi.Date(in.CreatedAt)

	props := notionapi.Properties{
		PropTitle: notionapi.TitleProperty{
			Title: richText(in.Title),
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(in.Type)},
		},
		PropSeverity: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(in.Severity)},
		},
		PropDescription: notionapi.RichTextProperty{
			RichText: richText(in.Description),
		},
		PropInsightID: notionapi.RichTextProperty{
			RichText: richText(in.ID),
		},
		PropCreated: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &created},
		},
	}

	if len(in.Metadata) > 0 {
		if raw, err := json.Marshal(in.Metadata); err == nil {
			props[PropMetadata] = notionapi.RichTextProperty{
				RichText: richText(string(raw)),
			}
		}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	if runes := []rune(content); len(runes) > maxRichText {
		content = string(runes[:maxRichText])
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// insightTypeOf reads the Type select of a page returned by a database query.
func insightTypeOf(page notionapi.Page) domain.InsightType {
	if prop, ok := page.Properties[PropType]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			return domain.InsightType(sel.Select.Name)
		}
	}
	return ""
}
