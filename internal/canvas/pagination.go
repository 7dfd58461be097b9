package canvas

import (
	"context"
	"strings"
)

// listPage fetches one page of a list endpoint. pageURL is the absolute URL
// of the page to fetch; next is the absolute URL of the following page, or
// empty when the response carried no rel="next" link.
type listPage[T any] func(ctx context.Context, pageURL string) (items []T, next string, err error)

// fetchAll exhausts a paginated list endpoint starting at firstPage,
// concatenating all pages' items in the order Canvas returned them. It keeps
// following rel="next" links even across short or empty pages and stops only
// when a response carries no next link. Any page error is propagated as-is
// and no partial result is returned.
func fetchAll[T any](ctx context.Context, firstPage string, fetch listPage[T]) ([]T, error) {
	var all []T
	pageURL := firstPage
	for {
		items, next, err := fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		pageURL = next
	}
}

// parseNextLink extracts the rel="next" URL from an RFC 5988 Link header as
// emitted by Canvas, e.g.
//
//	<https://canvas/api/v1/courses/1/pages?page=2>; rel="next", <...>; rel="last"
//
// An absent header or a header without a next relation means the last page
// was reached. A header entry that does not follow the <url>; rel="..."
// shape is a PaginationError: the response looked successful but the
// pagination signal is unusable.
func parseNextLink(header string) (string, error) {
	if header == "" {
		return "", nil
	}
	for _, entry := range strings.Split(header, ",") {
		parts := strings.Split(entry, ";")
		target := strings.TrimSpace(parts[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			return "", &PaginationError{Header: header, Reason: "malformed link target"}
		}
		if len(parts) < 2 {
			return "", &PaginationError{Header: header, Reason: "missing rel parameter"}
		}
		for _, param := range parts[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return strings.Trim(target, "<>"), nil
			}
		}
	}
	return "", nil
}
