// Package blueprint fetches and validates millimeter-space bubble-sheet
// template descriptions.
//
// A Blueprint is the single source of truth for where marks live on the
// page: question regions of interest and identifier bubble centers, all in
// millimeters. Converting those regions into pixel space is the caller's
// responsibility (see the roimap package); this package only guarantees that
// a Blueprint it hands out is structurally sound.
//
// # Fetching
//
// Client.Fetch retrieves the template for a given question count from the
// template service over HTTP with a bounded timeout. Responses are cached
// per question count with a TTL, since templates are immutable once
// published. Transport and decoding failures surface as *FetchError;
// structural violations surface as *InvalidError.
//
// # Degraded operation
//
// When the template service is unreachable, callers may build a degraded
// Blueprint from a legacy question list via FromLegacy. Such blueprints
// carry no identifier layout, so identifier extraction is skipped
// downstream. No retry happens inside this package; retry policy belongs to
// the caller.
package blueprint
