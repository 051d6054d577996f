package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/jomei/notionapi"
)

// PublishResult counts the page operations of one publish.
type PublishResult struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// PublishInsights mirrors a generated batch into a Notion database.
// The database holds at most one page per insight type: a type present in
// the batch updates its page (or creates one), and pages whose type is not
// in the batch are archived. Individual page failures are logged and counted,
// only a failed database query aborts the publish.
func PublishInsights(ctx context.Context, svc NotionService, databaseID string, list []domain.Insight, dryRun bool) (PublishResult, error) {
	log := logger.FromContext(ctx)
	var res PublishResult

	if databaseID == "" {
		return res, fmt.Errorf("PublishInsights: database ID is required")
	}

	log.Info().
		Int("insight_count", len(list)).
		Bool("dry_run", dryRun).
		Msg("Publishing insights to Notion")

	pages, err := queryAllNotionPages(ctx, svc, databaseID)
	if err != nil {
		return res, fmt.Errorf("PublishInsights: %w", err)
	}

	current := make(map[domain.InsightType]bool, len(list))
	for _, in := range list {
		current[in.Type] = true
	}

	// First page per type is reused, any duplicates are archived with the stale ones.
	existing := make(map[domain.InsightType]string)
	for _, page := range pages {
		typ := insightTypeOf(page)
		if _, seen := existing[typ]; typ != "" && current[typ] && !seen {
			existing[typ] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().Str("type", string(typ)).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			res.Archived++
			continue
		}
		if err := svc.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		res.Archived++
	}

	for _, in := range list {
		pageID, ok := existing[in.Type]

		if dryRun {
			if ok {
				log.Info().Str("type", string(in.Type)).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
			} else {
				log.Info().Str("type", string(in.Type)).Msg("[DRY RUN] Would create Notion page")
				res.Created++
			}
			continue
		}

		props := InsightToNotionProperties(in)
		if ok {
			if _, err := svc.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("type", string(in.Type)).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}

		page, err := svc.CreatePage(ctx, databaseID, props)
		if err != nil {
			log.Warn().Err(err).Str("type", string(in.Type)).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		existing[in.Type] = string(page.ID)
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Notion publish completed")

	return res, nil
}

// queryAllNotionPages follows the query cursor until the database is exhausted.
func queryAllNotionPages(ctx context.Context, svc NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
