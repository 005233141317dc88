package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// maxPageSize is the largest page Notion returns per query.
const maxPageSize = 100

// QueryAll follows query cursors until the database is exhausted and returns
// every page. A nil query lists the whole database.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	base := notionapi.DatabaseQueryRequest{PageSize: maxPageSize}
	if query != nil {
		base = *query
		if base.PageSize <= 0 || base.PageSize > maxPageSize {
			base.PageSize = maxPageSize
		}
	}

	var (
		pages []notionapi.Page
		seen  = make(map[notionapi.Cursor]bool)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		req := base
		resp, err := c.QueryDatabase(ctx, dbID, &req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		if seen[resp.NextCursor] {
			return nil, eris.Errorf("notion: cursor %s repeated", resp.NextCursor)
		}
		seen[resp.NextCursor] = true
		base.StartCursor = resp.NextCursor
	}
}

// QueryByStatus lists the pages whose Status property equals status, in the
// given sort order.
func QueryByStatus(ctx context.Context, c Client, dbID, status string, sorts ...notionapi.SortObject) ([]notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status:   &notionapi.StatusFilterCondition{Equals: status},
		},
		Sorts: sorts,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query status %s", status)
	}
	return pages, nil
}
